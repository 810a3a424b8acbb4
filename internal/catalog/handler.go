// Package catalog provides HTTP handlers and business logic for the service registry.
package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/bissquit/uptime-dashboard/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: domain.ErrServiceNotFound, Status: http.StatusNotFound, Message: "service not found"},
	{Error: domain.ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrInvalidHistoryDays, Status: http.StatusBadRequest, Message: ErrInvalidHistoryDays.Error()},
}

// Handler handles HTTP requests for the catalog module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers all HTTP routes for the catalog module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.ListServices)
		r.Post("/", h.CreateService)
		r.Get("/{id}", h.GetService)
		r.Patch("/{id}", h.UpdateService)
		r.Delete("/{id}", h.DeleteService)
		r.Get("/{id}/uptime", h.GetUptimeHistory)
	})
}

// CreateServiceRequest represents the request body for registering a service.
type CreateServiceRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Category    string `json:"category" validate:"required,min=1,max=255"`
	URL         string `json:"url" validate:"required,http_url"`
	Description string `json:"description" validate:"max=1000"`
}

// ToDomain converts the request to a domain model.
func (r *CreateServiceRequest) ToDomain() *domain.Service {
	return &domain.Service{
		Name:        r.Name,
		Category:    r.Category,
		URL:         r.URL,
		Description: r.Description,
	}
}

// UpdateServiceRequest represents the request body for patching a service.
// Omitted fields are left unchanged.
type UpdateServiceRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=255"`
	URL         *string `json:"url" validate:"omitempty,http_url"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Status      *string `json:"status" validate:"omitempty,oneof=operational degraded partial_outage major_outage unknown"`
}

// ToDomain converts the request to a domain patch.
func (r *UpdateServiceRequest) ToDomain() domain.ServicePatch {
	patch := domain.ServicePatch{
		Name:        r.Name,
		Category:    r.Category,
		URL:         r.URL,
		Description: r.Description,
	}
	if r.Status != nil {
		status := domain.ServiceStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

// ListServices handles GET /services request.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, services)
}

// CreateService handles POST /services request.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	service := req.ToDomain()
	if err := h.service.CreateService(r.Context(), service); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, service)
}

// GetService handles GET /services/{id} request.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, detail)
}

// UpdateService handles PATCH /services/{id} request.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req UpdateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	service, err := h.service.UpdateService(r.Context(), chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, service)
}

// DeleteService handles DELETE /services/{id} request.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUptimeHistory handles GET /services/{id}/uptime request.
func (h *Handler) GetUptimeHistory(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid days parameter")
			return
		}
		if parsed == 0 {
			httputil.Error(w, http.StatusBadRequest, ErrInvalidHistoryDays.Error())
			return
		}
		days = parsed
	}

	history, err := h.service.UptimeHistory(r.Context(), chi.URLParam(r, "id"), days)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, history)
}
