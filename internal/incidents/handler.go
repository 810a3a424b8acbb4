package incidents

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/bissquit/uptime-dashboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: domain.ErrIncidentNotFound, Status: http.StatusNotFound, Message: "incident not found"},
	{Error: domain.ErrInvalidTransition, Status: http.StatusConflict},
	{Error: domain.ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: domain.ErrInvalidSeverity, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for incidents.
type Handler struct {
	tracker   *Tracker
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(tracker *Tracker) *Handler {
	return &Handler{
		tracker:   tracker,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers incident routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Get("/{id}", h.GetIncident)
		r.Patch("/{id}", h.UpdateIncident)
		r.Post("/{id}/updates", h.AddIncidentUpdate)
	})
}

// UpdateIncidentRequest represents the request body for patching an incident.
type UpdateIncidentRequest struct {
	Status   *string `json:"status" validate:"omitempty,oneof=open investigating resolved"`
	Severity *string `json:"severity" validate:"omitempty,oneof=info warning error critical"`
	Message  *string `json:"message" validate:"omitempty,min=1,max=1000"`
}

// ToDomain converts the request to a domain patch.
func (r *UpdateIncidentRequest) ToDomain() domain.IncidentPatch {
	var patch domain.IncidentPatch
	if r.Status != nil {
		status := domain.IncidentStatus(*r.Status)
		patch.Status = &status
	}
	if r.Severity != nil {
		severity := domain.IncidentSeverity(*r.Severity)
		patch.Severity = &severity
	}
	patch.Message = r.Message
	return patch
}

// AddIncidentUpdateRequest represents the request body for a timeline entry.
type AddIncidentUpdateRequest struct {
	Message string `json:"message" validate:"required,min=1,max=1000"`
	Author  string `json:"author" validate:"max=255"`
}

// ListIncidents handles GET /incidents request.
// With ?active=true only unresolved incidents are returned.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	var (
		list []domain.Incident
		err  error
	)

	if r.URL.Query().Get("active") == "true" {
		list, err = h.tracker.ListActive(r.Context())
	} else {
		list, err = h.tracker.ListAll(r.Context())
	}
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, list)
}

// GetIncident handles GET /incidents/{id} request.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.tracker.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// UpdateIncident handles PATCH /incidents/{id} request.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	var req UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.tracker.Update(r.Context(), chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// AddIncidentUpdate handles POST /incidents/{id}/updates request.
func (h *Handler) AddIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	var req AddIncidentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.tracker.AddUpdate(r.Context(), chi.URLParam(r, "id"), req.Message, req.Author)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}
