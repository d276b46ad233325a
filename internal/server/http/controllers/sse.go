package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
)

// sseSink implements chatsvc.Sink for Server-Sent Events.
//
// Each message becomes one "data:" event carrying its JSON form.
type sseSink struct {
	w http.ResponseWriter
	r *http.Request
}

// Send writes one SSE data event.
func (s sseSink) Send(m mailbox.Message) error {
	b, err := json.Marshal(toMessageItem(m))
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	return nil
}

// Context returns the request context for cancellation.
func (s sseSink) Context() context.Context {
	return s.r.Context()
}

// Flush pushes buffered events to the client so each delivery is visible
// before the message is removed from the mailbox.
func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
