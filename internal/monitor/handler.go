package monitor

import (
	"net/http"

	"github.com/bissquit/uptime-dashboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler exposes manual health rounds over HTTP.
type Handler struct {
	prober *Prober
}

// NewHandler creates a new monitor handler.
func NewHandler(prober *Prober) *Handler {
	return &Handler{prober: prober}
}

// RegisterRoutes registers monitor routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/checks", h.RunChecks)
}

// RunChecks handles POST /checks request.
// The round runs synchronously and its report is returned.
func (h *Handler) RunChecks(w http.ResponseWriter, r *http.Request) {
	report := h.prober.RunOnce(r.Context())
	httputil.Success(w, http.StatusOK, report)
}
