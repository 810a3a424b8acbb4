package dashboard

import (
	"net/http"

	"github.com/bissquit/uptime-dashboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for dashboard views.
type Handler struct {
	aggregator *Aggregator
}

// NewHandler creates a new dashboard handler.
func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{aggregator: aggregator}
}

// RegisterRoutes registers dashboard routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/summary", h.GetSummary)
		r.Get("/categories", h.GetCategories)
	})
}

// GetSummary handles GET /dashboard/summary request.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.aggregator.Summary(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	httputil.Success(w, http.StatusOK, summary)
}

// GetCategories handles GET /dashboard/categories request.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	groups, err := h.aggregator.ByCategory(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	httputil.Success(w, http.StatusOK, groups)
}
