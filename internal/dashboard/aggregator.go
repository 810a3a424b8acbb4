// Package dashboard derives dashboard views from registry and incident state.
package dashboard

import (
	"context"
	"fmt"

	"github.com/bissquit/uptime-dashboard/internal/domain"
)

// ServiceSource provides the registered services.
type ServiceSource interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	ListServicesByCategory(ctx context.Context) ([]domain.ServiceCategory, error)
}

// IncidentSource provides unresolved incidents.
type IncidentSource interface {
	ListActive(ctx context.Context) ([]domain.Incident, error)
}

// Summary is the dashboard headline.
type Summary struct {
	TotalServices       int                  `json:"total_services"`
	OperationalServices int                  `json:"operational_services"`
	DegradedServices    int                  `json:"degraded_services"`
	OutageServices      int                  `json:"outage_services"`
	ActiveIncidents     int                  `json:"active_incidents"`
	OverallStatus       domain.ServiceStatus `json:"overall_status"`
	OverallStatusLabel  string               `json:"overall_status_label"`
}

// Aggregator computes read-only dashboard views on demand.
type Aggregator struct {
	services  ServiceSource
	incidents IncidentSource
}

// NewAggregator creates a new aggregator.
func NewAggregator(services ServiceSource, incidents IncidentSource) *Aggregator {
	return &Aggregator{services: services, incidents: incidents}
}

// Summary counts services by status and picks the overall status.
// Any outage makes the overall status partial_outage, otherwise any degraded
// service makes it degraded. Services with unknown status count only in the total.
func (a *Aggregator) Summary(ctx context.Context) (*Summary, error) {
	services, err := a.services.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	active, err := a.incidents.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active incidents: %w", err)
	}

	s := &Summary{
		TotalServices:   len(services),
		ActiveIncidents: len(active),
	}

	for _, svc := range services {
		switch {
		case svc.Status == domain.ServiceStatusOperational:
			s.OperationalServices++
		case svc.Status == domain.ServiceStatusDegraded:
			s.DegradedServices++
		case svc.Status.IsOutage():
			s.OutageServices++
		}
	}

	switch {
	case s.OutageServices > 0:
		s.OverallStatus = domain.ServiceStatusPartialOutage
	case s.DegradedServices > 0:
		s.OverallStatus = domain.ServiceStatusDegraded
	default:
		s.OverallStatus = domain.ServiceStatusOperational
	}
	s.OverallStatusLabel = s.OverallStatus.Label()

	return s, nil
}

// ByCategory returns services grouped by category in first-seen order.
func (a *Aggregator) ByCategory(ctx context.Context) ([]domain.ServiceCategory, error) {
	groups, err := a.services.ListServicesByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("group services: %w", err)
	}
	return groups, nil
}
