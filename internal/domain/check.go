package domain

import "time"

// CheckOutcome is the binary result stored in the uptime ledger.
type CheckOutcome string

// Check outcomes.
const (
	CheckOutcomeUp   CheckOutcome = "up"
	CheckOutcomeDown CheckOutcome = "down"
)

// UptimeRecord is an immutable ledger entry for one check.
type UptimeRecord struct {
	ServiceID      string       `json:"service_id"`
	Timestamp      time.Time    `json:"timestamp"`
	Status         CheckOutcome `json:"status"`
	ResponseTimeMs *int64       `json:"response_time_ms,omitempty"`
}

// HealthCheckResult is the outcome of a single probe.
type HealthCheckResult struct {
	ServiceID      string
	Status         ServiceStatus
	ResponseTimeMs int64
	Timestamp      time.Time
	Error          string
}

// UptimeRecord converts the result into a ledger record.
// Response time is kept only for successful checks.
func (r HealthCheckResult) UptimeRecord() UptimeRecord {
	rec := UptimeRecord{
		ServiceID: r.ServiceID,
		Timestamp: r.Timestamp,
		Status:    CheckOutcomeDown,
	}
	if r.Status == ServiceStatusOperational {
		ms := r.ResponseTimeMs
		rec.Status = CheckOutcomeUp
		rec.ResponseTimeMs = &ms
	}
	return rec
}

// IncidentMessage returns the probe error, or a generated message when there is none.
func (r HealthCheckResult) IncidentMessage() string {
	if r.Error != "" {
		return r.Error
	}
	return "Service experiencing " + string(r.Status)
}
