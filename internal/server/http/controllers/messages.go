package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
	chatsvc "github.com/CHESTERFIELD/simple-chat/internal/services/chat"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

// MessagesController handles sending and the streaming receive endpoints.
type MessagesController struct {
	svc    *chatsvc.Service
	logger logpkg.Logger
}

// NewMessagesController creates a new messages controller.
func NewMessagesController(svc *chatsvc.Service, logger logpkg.Logger) *MessagesController {
	return &MessagesController{svc: svc, logger: logger}
}

// RegisterRoutes registers the message endpoints:
// - POST /v1/messages
// - GET /v1/messages/subscribe (SSE)
// - GET /v1/messages/ws (websocket)
func (c *MessagesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/messages", c.handleSend)
	mux.HandleFunc("/v1/messages/subscribe", c.handleSubscribeSSE)
	mux.HandleFunc("/v1/messages/ws", c.handleSubscribeWS)
}

// handleSend enqueues one message and answers 201 with its created time.
func (c *MessagesController) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req sendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	stored, err := c.svc.SendMessage(r.Context(), mailbox.Message{
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Body:      req.Body,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeCreatedJSON(w, sendResp{Created: stored.Created.Unix()})
}

// handleSubscribeSSE streams the login's mailbox as Server-Sent Events.
//
// Query parameters are validated before the event-stream headers are
// committed so bad requests still get a JSON error body.
func (c *MessagesController) handleSubscribeSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	login, opts, err := receiveParams(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	if err := c.svc.ReceiveMessages(r.Context(), login, opts, sseSink{w: w, r: r}); err != nil {
		c.logger.Warn("sse receive ended", logpkg.Str("login", login), logpkg.Err(err))
	}
}
