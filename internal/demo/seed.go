// Package demo seeds the registry with sample services and synthetic history.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/jonboulle/clockwork"
)

// HistoryDays is how many days of daily records each sample service gets.
const HistoryDays = 90

// Repository is the subset of the store the seeder writes to.
type Repository interface {
	CreateService(ctx context.Context, service *domain.Service) error
	UpdateService(ctx context.Context, id string, patch domain.ServicePatch) (*domain.Service, error)
	AppendRecord(ctx context.Context, record domain.UptimeRecord) error
}

type sample struct {
	name        string
	category    string
	url         string
	description string
	status      domain.ServiceStatus
	// targetUptime drives the share of synthetic up records.
	targetUptime float64
}

var samples = []sample{
	{
		name:         "User Authentication",
		category:     "Core Services",
		url:          "https://auth.example.com/health",
		description:  "Handles user authentication and authorization.",
		status:       domain.ServiceStatusOperational,
		targetUptime: 99.99,
	},
	{
		name:         "Payment Processing",
		category:     "Core Services",
		url:          "https://payments.example.com/health",
		description:  "Handles all payment transactions and processing.",
		status:       domain.ServiceStatusDegraded,
		targetUptime: 98.50,
	},
	{
		name:         "REST API",
		category:     "API Services",
		url:          "https://api.example.com/health",
		description:  "Monitors the health of the main REST API endpoints.",
		status:       domain.ServiceStatusOperational,
		targetUptime: 99.98,
	},
	{
		name:         "Database Cluster",
		category:     "Infrastructure Services",
		url:          "https://db-monitor.example.com/health",
		description:  "Monitors the health of the primary database cluster.",
		status:       domain.ServiceStatusOperational,
		targetUptime: 99.99,
	},
}

// Seeder writes sample data.
type Seeder struct {
	repo  Repository
	clock clockwork.Clock
	rng   *rand.Rand
}

// NewSeeder creates a seeder. A nil rng uses a time-seeded generator.
func NewSeeder(repo Repository, clock clockwork.Clock, rng *rand.Rand) *Seeder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if rng == nil {
		seed := uint64(clock.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Seeder{repo: repo, clock: clock, rng: rng}
}

// Seed registers the sample services, one record per day for the last
// HistoryDays days and today, and returns the created services.
// Uptime comes from the generated records.
func (s *Seeder) Seed(ctx context.Context) ([]domain.Service, error) {
	created := make([]domain.Service, 0, len(samples))

	for _, smp := range samples {
		svc := &domain.Service{
			Name:        smp.name,
			Category:    smp.category,
			URL:         smp.url,
			Description: smp.description,
		}
		if err := s.repo.CreateService(ctx, svc); err != nil {
			return nil, fmt.Errorf("create sample service %s: %w", smp.name, err)
		}

		if err := s.seedHistory(ctx, svc.ID, smp.targetUptime); err != nil {
			return nil, err
		}

		status := smp.status
		updated, err := s.repo.UpdateService(ctx, svc.ID, domain.ServicePatch{Status: &status})
		if err != nil {
			return nil, fmt.Errorf("set sample status for %s: %w", smp.name, err)
		}
		created = append(created, *updated)
	}

	slog.Info("demo data seeded", "services", len(created), "history_days", HistoryDays)
	return created, nil
}

func (s *Seeder) seedHistory(ctx context.Context, serviceID string, targetUptime float64) error {
	now := s.clock.Now()

	for i := HistoryDays; i >= 0; i-- {
		record := domain.UptimeRecord{
			ServiceID: serviceID,
			Timestamp: now.Add(-time.Duration(i) * 24 * time.Hour),
			Status:    domain.CheckOutcomeDown,
		}
		if s.rng.Float64()*100 <= targetUptime {
			ms := int64(50 + s.rng.IntN(500))
			record.Status = domain.CheckOutcomeUp
			record.ResponseTimeMs = &ms
		}

		if err := s.repo.AppendRecord(ctx, record); err != nil {
			return fmt.Errorf("append sample record: %w", err)
		}
	}

	return nil
}
