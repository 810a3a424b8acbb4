package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/google/uuid"
)

// CreateService registers a new service with status unknown and an empty ledger.
// ID and timestamps are assigned on the passed value.
func (s *Store) CreateService(_ context.Context, service *domain.Service) error {
	now := s.clock.Now()

	service.ID = uuid.NewString()
	service.Status = domain.ServiceStatusUnknown
	service.Uptime = 0
	service.ResponseTimeMs = nil
	service.LastChecked = nil
	service.CreatedAt = now
	service.UpdatedAt = now

	stored := *service

	s.mu.Lock()
	defer s.mu.Unlock()

	s.services[stored.ID] = &stored
	s.serviceOrder = append(s.serviceOrder, stored.ID)
	s.records[stored.ID] = []domain.UptimeRecord{}

	return nil
}

// GetService returns a service by ID.
func (s *Store) GetService(_ context.Context, id string) (*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	result := *svc
	return &result, nil
}

// ListServices returns all services in registration order.
func (s *Store) ListServices(_ context.Context) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listServicesLocked(), nil
}

func (s *Store) listServicesLocked() []domain.Service {
	result := make([]domain.Service, 0, len(s.serviceOrder))
	for _, id := range s.serviceOrder {
		result = append(result, *s.services[id])
	}
	return result
}

// ListServicesByCategory partitions services by category label.
// Categories appear in the order their first service was registered.
func (s *Store) ListServicesByCategory(_ context.Context) ([]domain.ServiceCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[string]int)
	categories := make([]domain.ServiceCategory, 0)

	for _, svc := range s.listServicesLocked() {
		i, ok := index[svc.Category]
		if !ok {
			i = len(categories)
			index[svc.Category] = i
			categories = append(categories, domain.ServiceCategory{
				Category: svc.Category,
				Services: make([]domain.Service, 0, 1),
			})
		}
		categories[i].Services = append(categories[i].Services, svc)
	}

	return categories, nil
}

// UpdateService merges the patch into the service and bumps UpdatedAt.
func (s *Store) UpdateService(_ context.Context, id string, patch domain.ServicePatch) (*domain.Service, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("update service %s: %w: %s", id, domain.ErrInvalidStatus, *patch.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}

	patch.Apply(svc)
	svc.UpdatedAt = s.clock.Now()

	result := *svc
	return &result, nil
}

// DeleteService removes the service together with its uptime ledger.
// Incidents referencing the service are kept.
func (s *Store) DeleteService(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[id]; !ok {
		return domain.ErrServiceNotFound
	}

	delete(s.services, id)
	delete(s.records, id)
	s.serviceOrder = slices.DeleteFunc(s.serviceOrder, func(v string) bool { return v == id })

	return nil
}
