package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ServiceStatus represents the operational status of a service.
type ServiceStatus string

// Service statuses.
const (
	ServiceStatusOperational   ServiceStatus = "operational"
	ServiceStatusDegraded      ServiceStatus = "degraded"
	ServiceStatusPartialOutage ServiceStatus = "partial_outage"
	ServiceStatusMajorOutage   ServiceStatus = "major_outage"
	ServiceStatusUnknown       ServiceStatus = "unknown"
)

// IsValid checks if the service status is valid.
func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusOperational, ServiceStatusDegraded,
		ServiceStatusPartialOutage, ServiceStatusMajorOutage,
		ServiceStatusUnknown:
		return true
	}
	return false
}

// IsOutage reports whether the status falls into the outage bucket.
// Partial and major outages are not distinguished at this level.
func (s ServiceStatus) IsOutage() bool {
	return s == ServiceStatusPartialOutage || s == ServiceStatusMajorOutage
}

// Label returns a human-readable form, e.g. "Partial Outage".
// Casers are stateful, so a new one is built per call.
func (s ServiceStatus) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "_", " "))
}

// Service represents a monitored HTTP service.
type Service struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Category       string        `json:"category"`
	URL            string        `json:"url"`
	Description    string        `json:"description,omitempty"`
	Status         ServiceStatus `json:"status"`
	Uptime         float64       `json:"uptime"`
	ResponseTimeMs *int64        `json:"response_time_ms,omitempty"`
	LastChecked    *time.Time    `json:"last_checked,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ServicePatch holds a partial update of a service.
// Nil fields are left untouched.
type ServicePatch struct {
	Name        *string
	Category    *string
	URL         *string
	Description *string
	Status      *ServiceStatus
}

// Apply merges the non-nil fields of the patch into s.
func (p ServicePatch) Apply(s *Service) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.URL != nil {
		s.URL = *p.URL
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
}

// ServiceCategory groups services sharing a category label.
type ServiceCategory struct {
	Category string    `json:"category"`
	Services []Service `json:"services"`
}
