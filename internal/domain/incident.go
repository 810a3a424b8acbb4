package domain

import "time"

// IncidentStatus represents the lifecycle state of an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusOpen          IncidentStatus = "open"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusResolved      IncidentStatus = "resolved"
)

// IsValid checks if the incident status is valid.
func (s IncidentStatus) IsValid() bool {
	return s == IncidentStatusOpen ||
		s == IncidentStatusInvestigating ||
		s == IncidentStatusResolved
}

// CanTransitionTo reports whether an incident may move from s to next.
// Resolved is terminal. Keeping the same status is always allowed.
func (s IncidentStatus) CanTransitionTo(next IncidentStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	return s != IncidentStatusResolved
}

// IncidentSeverity represents how bad an incident is.
type IncidentSeverity string

// Incident severities.
const (
	IncidentSeverityInfo     IncidentSeverity = "info"
	IncidentSeverityWarning  IncidentSeverity = "warning"
	IncidentSeverityError    IncidentSeverity = "error"
	IncidentSeverityCritical IncidentSeverity = "critical"
)

// IsValid checks if the severity is valid.
func (s IncidentSeverity) IsValid() bool {
	switch s {
	case IncidentSeverityInfo, IncidentSeverityWarning,
		IncidentSeverityError, IncidentSeverityCritical:
		return true
	}
	return false
}

// SeverityForStatus maps a non-operational service status to incident severity.
// The second result is false for statuses that never open an incident.
func SeverityForStatus(status ServiceStatus) (IncidentSeverity, bool) {
	switch status {
	case ServiceStatusDegraded:
		return IncidentSeverityWarning, true
	case ServiceStatusPartialOutage:
		return IncidentSeverityError, true
	case ServiceStatusMajorOutage:
		return IncidentSeverityCritical, true
	default:
		return "", false
	}
}

// Incident is opened when a service leaves the operational state.
type Incident struct {
	ID          string           `json:"id"`
	ServiceID   string           `json:"service_id"`
	ServiceName string           `json:"service_name"`
	Severity    IncidentSeverity `json:"severity"`
	Message     string           `json:"message"`
	Status      IncidentStatus   `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
	Updates     []IncidentUpdate `json:"updates"`
}

// IsActive returns true until the incident is resolved.
func (i *Incident) IsActive() bool {
	return i.Status != IncidentStatusResolved
}

// Clone returns a copy that shares no slices with i.
func (i Incident) Clone() Incident {
	updates := make([]IncidentUpdate, len(i.Updates))
	copy(updates, i.Updates)
	i.Updates = updates
	return i
}

// IncidentUpdate is a timeline entry attached to an incident.
type IncidentUpdate struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author,omitempty"`
}

// IncidentPatch holds a partial update of an incident.
type IncidentPatch struct {
	Status   *IncidentStatus
	Severity *IncidentSeverity
	Message  *string
}
