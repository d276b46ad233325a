package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

const (
	wsWriteWait = 10 * time.Second
	// control frame payloads are capped at 125 bytes, two of which carry the code
	maxCloseReason = 123
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway already answers every origin via CORS.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsSink implements chatsvc.Sink over a websocket connection. Only the
// delivery goroutine writes data frames.
type wsSink struct {
	conn *websocket.Conn
	ctx  context.Context
}

func (s wsSink) Send(m mailbox.Message) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteJSON(toMessageItem(m))
}

func (s wsSink) Context() context.Context { return s.ctx }

// Flush is a no-op: WriteJSON sends a complete frame.
func (s wsSink) Flush() error { return nil }

// handleSubscribeWS upgrades to a websocket and streams the login's mailbox
// as one JSON text frame per message. The subscription ends when the peer
// closes, the limit is reached, or the server shuts down.
func (c *MessagesController) handleSubscribeWS(w http.ResponseWriter, r *http.Request) {
	login, opts, err := receiveParams(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		c.logger.Debug("websocket upgrade failed", logpkg.Err(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader loop: surfaces peer close and services control frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	err = c.svc.ReceiveMessages(ctx, login, opts, wsSink{conn: conn, ctx: ctx})
	code, reason := websocket.CloseNormalClosure, ""
	if err != nil {
		c.logger.Warn("websocket receive ended", logpkg.Str("login", login), logpkg.Err(err))
		code, reason = websocket.CloseInternalServerErr, err.Error()
		if len(reason) > maxCloseReason {
			reason = reason[:maxCloseReason]
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsWriteWait))
}
