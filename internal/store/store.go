// Package store provides the in-memory state owner for services, uptime records and incidents.
package store

import (
	"sync"
	"time"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultUptimeWindow is the period uptime percentages are computed over.
const DefaultUptimeWindow = 90 * 24 * time.Hour

// DefaultRetention is how long ledger records are kept. It covers the
// longest history range the API serves.
const DefaultRetention = 365 * 24 * time.Hour

// Config contains store configuration.
type Config struct {
	UptimeWindow time.Duration
	// Retention is raised to UptimeWindow when shorter.
	Retention    time.Duration
	Clock        clockwork.Clock
}

// Store keeps all monitoring state for the lifetime of the process.
// It is the only owner of its maps; every method returns copies.
type Store struct {
	window    time.Duration
	retention time.Duration
	clock     clockwork.Clock

	mu            sync.RWMutex
	services      map[string]*domain.Service
	serviceOrder  []string
	records       map[string][]domain.UptimeRecord
	incidents     map[string]*domain.Incident
	incidentOrder []string
}

// New creates an empty store.
func New(cfg Config) *Store {
	if cfg.UptimeWindow <= 0 {
		cfg.UptimeWindow = DefaultUptimeWindow
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	cfg.Retention = max(cfg.Retention, cfg.UptimeWindow)
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Store{
		window:    cfg.UptimeWindow,
		retention: cfg.Retention,
		clock:     cfg.Clock,
		services:  make(map[string]*domain.Service),
		records:   make(map[string][]domain.UptimeRecord),
		incidents: make(map[string]*domain.Incident),
	}
}
