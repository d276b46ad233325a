package controllers

import (
	"net/http"

	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
	chatsvc "github.com/CHESTERFIELD/simple-chat/internal/services/chat"
	logpkg "github.com/CHESTERFIELD/simple-chat/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
//
// It owns one controller per route group and wires them onto a single mux.
type ControllerRegistry struct {
	general  *GeneralController
	users    *UsersController
	messages *MessagesController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, svc *chatsvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general:  NewGeneralController(rt),
		users:    NewUsersController(svc),
		messages: NewMessagesController(svc, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
//
// This covers health and metrics, the user directory, sending, and both
// streaming receive transports (SSE and websocket).
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.users.RegisterRoutes(mux)
	r.messages.RegisterRoutes(mux)
}
