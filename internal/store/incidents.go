package store

import (
	"context"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/google/uuid"
)

// CreateIncident stores a new incident and assigns its ID.
func (s *Store) CreateIncident(_ context.Context, incident *domain.Incident) error {
	incident.ID = uuid.NewString()
	if incident.Updates == nil {
		incident.Updates = make([]domain.IncidentUpdate, 0)
	}

	stored := incident.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.incidents[stored.ID] = &stored
	s.incidentOrder = append(s.incidentOrder, stored.ID)
	return nil
}

// GetIncident returns an incident by ID.
func (s *Store) GetIncident(_ context.Context, id string) (*domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.incidents[id]
	if !ok {
		return nil, domain.ErrIncidentNotFound
	}
	result := inc.Clone()
	return &result, nil
}

// UpdateIncident applies fn to a copy of the incident and stores the copy
// only if fn succeeds. fn runs under the store lock and must not call back
// into the store.
func (s *Store) UpdateIncident(_ context.Context, id string, fn func(*domain.Incident) error) (*domain.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return nil, domain.ErrIncidentNotFound
	}

	working := inc.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}

	s.incidents[id] = &working
	result := working.Clone()
	return &result, nil
}

// ListIncidents returns incidents in creation order, optionally only unresolved ones.
func (s *Store) ListIncidents(_ context.Context, activeOnly bool) ([]domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Incident, 0, len(s.incidentOrder))
	for _, id := range s.incidentOrder {
		inc := s.incidents[id]
		if activeOnly && !inc.IsActive() {
			continue
		}
		result = append(result, inc.Clone())
	}
	return result, nil
}
