package controllers

import (
	"net/http"

	chatsvc "github.com/CHESTERFIELD/simple-chat/internal/services/chat"
)

// UsersController serves the user directory.
type UsersController struct {
	svc *chatsvc.Service
}

// NewUsersController creates a new users controller.
func NewUsersController(svc *chatsvc.Service) *UsersController {
	return &UsersController{svc: svc}
}

// RegisterRoutes registers /v1/users.
func (c *UsersController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/users", c.handleList)
}

func (c *UsersController) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	users, err := c.svc.GetUsers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := usersResp{Users: make([]userItem, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, userItem{Login: u.Login, FullName: u.FullName})
	}
	writeJSON(w, out)
}
