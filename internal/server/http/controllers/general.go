package controllers

import (
	"net/http"

	"github.com/CHESTERFIELD/simple-chat/internal/runtime"
)

// GeneralController handles endpoints that are not tied to the chat domain:
// health and the Prometheus scrape target.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers /v1/healthz and /metrics.
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", c.handleHealth)
	if m := c.rt.Metrics(); m != nil {
		mux.Handle("/metrics", m.Handler())
	}
}

// handleHealth returns 200 with {"status":"ok"} while the store answers,
// 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
