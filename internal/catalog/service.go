package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bissquit/uptime-dashboard/internal/domain"
)

// History range limits in days.
const (
	DefaultHistoryDays = 90
	MaxHistoryDays     = 365
)

// ErrInvalidHistoryDays is returned for a history range outside 1..MaxHistoryDays.
var ErrInvalidHistoryDays = errors.New("days must be between 1 and 365")

// ServiceDetail is a service together with its recent uptime history.
type ServiceDetail struct {
	domain.Service
	UptimeHistory []domain.UptimeRecord `json:"uptime_history"`
}

// Service implements service registry business logic.
type Service struct {
	repo        Repository
	historyDays int
}

// NewService creates a new catalog service. Non-positive historyDays
// falls back to DefaultHistoryDays.
func NewService(repo Repository, historyDays int) *Service {
	if historyDays <= 0 {
		historyDays = DefaultHistoryDays
	}
	return &Service{repo: repo, historyDays: historyDays}
}

// CreateService registers a service.
func (s *Service) CreateService(ctx context.Context, service *domain.Service) error {
	if err := s.repo.CreateService(ctx, service); err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	slog.Info("service registered",
		"service_id", service.ID,
		"service", service.Name,
		"category", service.Category,
	)
	return nil
}

// GetService returns a service with its default-range uptime history.
func (s *Service) GetService(ctx context.Context, id string) (*ServiceDetail, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.History(ctx, id, s.historyDays)
	if err != nil {
		return nil, fmt.Errorf("get uptime history: %w", err)
	}

	return &ServiceDetail{Service: *svc, UptimeHistory: history}, nil
}

// ListServices returns all services in registration order.
func (s *Service) ListServices(ctx context.Context) ([]domain.Service, error) {
	return s.repo.ListServices(ctx)
}

// UpdateService merges the patch into the service.
func (s *Service) UpdateService(ctx context.Context, id string, patch domain.ServicePatch) (*domain.Service, error) {
	return s.repo.UpdateService(ctx, id, patch)
}

// DeleteService removes the service and its uptime history.
func (s *Service) DeleteService(ctx context.Context, id string) error {
	if err := s.repo.DeleteService(ctx, id); err != nil {
		return err
	}

	slog.Info("service deleted", "service_id", id)
	return nil
}

// UptimeHistory returns the records of the last days. Zero days means the
// configured default.
func (s *Service) UptimeHistory(ctx context.Context, id string, days int) ([]domain.UptimeRecord, error) {
	if days == 0 {
		days = s.historyDays
	}
	if days < 1 || days > MaxHistoryDays {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHistoryDays, days)
	}

	return s.repo.History(ctx, id, days)
}
