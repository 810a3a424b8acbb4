// Package incidents provides the incident tracker and its HTTP handlers.
package incidents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Repository defines the interface for incident storage.
type Repository interface {
	CreateIncident(ctx context.Context, incident *domain.Incident) error
	GetIncident(ctx context.Context, id string) (*domain.Incident, error)
	UpdateIncident(ctx context.Context, id string, fn func(*domain.Incident) error) (*domain.Incident, error)
	ListIncidents(ctx context.Context, activeOnly bool) ([]domain.Incident, error)
}

// Tracker implements incident business logic.
type Tracker struct {
	repo  Repository
	clock clockwork.Clock
}

// NewTracker creates a new incident tracker.
func NewTracker(repo Repository, clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{repo: repo, clock: clock}
}

// Open creates an incident for a service that left the operational state.
// Statuses without a severity mapping return ErrNoIncidentForStatus.
func (t *Tracker) Open(ctx context.Context, result domain.HealthCheckResult, service domain.Service) (*domain.Incident, error) {
	severity, ok := domain.SeverityForStatus(result.Status)
	if !ok {
		return nil, fmt.Errorf("open incident for %s: %w: %s", service.ID, domain.ErrNoIncidentForStatus, result.Status)
	}

	incident := &domain.Incident{
		ServiceID:   service.ID,
		ServiceName: service.Name,
		Severity:    severity,
		Message:     result.IncidentMessage(),
		Status:      domain.IncidentStatusInvestigating,
		StartedAt:   t.clock.Now(),
		Updates:     make([]domain.IncidentUpdate, 0),
	}

	if err := t.repo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	slog.Info("incident opened",
		"incident_id", incident.ID,
		"service_id", service.ID,
		"service", service.Name,
		"severity", severity,
	)

	return incident, nil
}

// Update merges the patch into the incident.
// Resolved incidents cannot be reopened; resolving sets ResolvedAt.
func (t *Tracker) Update(ctx context.Context, id string, patch domain.IncidentPatch) (*domain.Incident, error) {
	if patch.Severity != nil && !patch.Severity.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSeverity, *patch.Severity)
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidStatus, *patch.Status)
	}

	now := t.clock.Now()

	return t.repo.UpdateIncident(ctx, id, func(inc *domain.Incident) error {
		if patch.Status != nil {
			if !inc.Status.CanTransitionTo(*patch.Status) {
				return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, inc.Status, *patch.Status)
			}
			if *patch.Status == domain.IncidentStatusResolved && inc.ResolvedAt == nil {
				inc.ResolvedAt = &now
			}
			inc.Status = *patch.Status
		}
		if patch.Severity != nil {
			inc.Severity = *patch.Severity
		}
		if patch.Message != nil {
			inc.Message = *patch.Message
		}
		return nil
	})
}

// AddUpdate appends a timeline entry to the incident.
func (t *Tracker) AddUpdate(ctx context.Context, id, message, author string) (*domain.Incident, error) {
	update := domain.IncidentUpdate{
		ID:        uuid.NewString(),
		Message:   message,
		Timestamp: t.clock.Now(),
		Author:    author,
	}

	return t.repo.UpdateIncident(ctx, id, func(inc *domain.Incident) error {
		inc.Updates = append(inc.Updates, update)
		return nil
	})
}

// Get returns an incident by ID.
func (t *Tracker) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return t.repo.GetIncident(ctx, id)
}

// ListAll returns every incident in creation order.
func (t *Tracker) ListAll(ctx context.Context) ([]domain.Incident, error) {
	return t.repo.ListIncidents(ctx, false)
}

// ListActive returns incidents that are not resolved.
func (t *Tracker) ListActive(ctx context.Context) ([]domain.Incident, error) {
	return t.repo.ListIncidents(ctx, true)
}
