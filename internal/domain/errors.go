package domain

import "errors"

// Lookup errors.
var (
	ErrServiceNotFound  = errors.New("service not found")
	ErrIncidentNotFound = errors.New("incident not found")
)

// Ledger errors.
var (
	ErrStaleRecord = errors.New("record is older than the latest recorded check")
)

// Incident errors.
var (
	ErrNoIncidentForStatus = errors.New("status does not open an incident")
	ErrInvalidTransition   = errors.New("invalid incident status transition")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidSeverity     = errors.New("invalid severity")
)
