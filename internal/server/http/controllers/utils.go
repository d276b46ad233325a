package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/CHESTERFIELD/simple-chat/internal/errs"
	chatsvc "github.com/CHESTERFIELD/simple-chat/internal/services/chat"
)

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeCreatedJSON writes a 201 Created response with a JSON body.
func writeCreatedJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(data)
}

// writeDomainError maps the error taxonomy onto an HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidMessage), errors.Is(err, errs.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errs.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// parseLimit parses a limit string. Empty means unbounded; anything that is
// not a non-negative integer is rejected.
func parseLimit(limitStr string) (int, error) {
	if limitStr == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", errs.ErrInvalidRequest)
	}
	return limit, nil
}

// receiveParams reads login, filter and limit from the query string.
func receiveParams(r *http.Request) (string, chatsvc.ReceiveOptions, error) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		return "", chatsvc.ReceiveOptions{}, err
	}
	login := q.Get("login")
	opts := chatsvc.ReceiveOptions{Filter: q.Get("filter"), Limit: limit}
	if err := chatsvc.ValidateReceive(login, opts); err != nil {
		return "", chatsvc.ReceiveOptions{}, err
	}
	return login, opts, nil
}
