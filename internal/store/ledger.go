package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bissquit/uptime-dashboard/internal/domain"
)

// AppendRecord adds a record to the service's ledger and recomputes its uptime.
func (s *Store) AppendRecord(_ context.Context, record domain.UptimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[record.ServiceID]; !ok {
		return domain.ErrServiceNotFound
	}

	return s.appendRecordLocked(record)
}

// RecordCheck applies a probe result atomically: the service's status,
// response time and last check time are written, a ledger record is appended
// and uptime is recomputed. It returns the status the service had before.
func (s *Store) RecordCheck(_ context.Context, result domain.HealthCheckResult) (domain.ServiceStatus, *domain.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[result.ServiceID]
	if !ok {
		return "", nil, domain.ErrServiceNotFound
	}

	if err := s.checkOrderLocked(result.ServiceID, result.Timestamp); err != nil {
		return "", nil, err
	}

	previous := svc.Status
	responseTime := result.ResponseTimeMs
	checkedAt := result.Timestamp

	svc.Status = result.Status
	svc.ResponseTimeMs = &responseTime
	svc.LastChecked = &checkedAt
	svc.UpdatedAt = s.clock.Now()

	if err := s.appendRecordLocked(result.UptimeRecord()); err != nil {
		return "", nil, err
	}

	updated := *svc
	return previous, &updated, nil
}

// History returns the records of the last days, oldest first.
// Non-positive days fall back to the uptime window.
func (s *Store) History(_ context.Context, serviceID string, days int) ([]domain.UptimeRecord, error) {
	window := s.window
	if days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.services[serviceID]; !ok {
		return nil, domain.ErrServiceNotFound
	}

	inWindow := s.recordsSinceLocked(serviceID, s.clock.Now().Add(-window))
	result := make([]domain.UptimeRecord, len(inWindow))
	copy(result, inWindow)
	return result, nil
}

func (s *Store) checkOrderLocked(serviceID string, ts time.Time) error {
	records := s.records[serviceID]
	if n := len(records); n > 0 && ts.Before(records[n-1].Timestamp) {
		return fmt.Errorf("service %s at %s: %w", serviceID, ts.Format(time.RFC3339Nano), domain.ErrStaleRecord)
	}
	return nil
}

func (s *Store) appendRecordLocked(record domain.UptimeRecord) error {
	if err := s.checkOrderLocked(record.ServiceID, record.Timestamp); err != nil {
		return err
	}

	s.records[record.ServiceID] = append(s.records[record.ServiceID], record)
	s.pruneLocked(record.ServiceID)
	s.recomputeUptimeLocked(record.ServiceID)
	return nil
}

// pruneLocked drops records older than the retention period. The latest
// record is always kept so append ordering can still be checked.
func (s *Store) pruneLocked(serviceID string) {
	records := s.records[serviceID]
	cutoff := s.clock.Now().Add(-s.retention)
	i := sort.Search(len(records), func(i int) bool {
		return !records[i].Timestamp.Before(cutoff)
	})
	i = min(i, len(records)-1)
	if i > 0 {
		s.records[serviceID] = records[i:]
	}
}

// recordsSinceLocked relies on records being sorted by timestamp.
func (s *Store) recordsSinceLocked(serviceID string, cutoff time.Time) []domain.UptimeRecord {
	records := s.records[serviceID]
	i := sort.Search(len(records), func(i int) bool {
		return !records[i].Timestamp.Before(cutoff)
	})
	return records[i:]
}

func (s *Store) recomputeUptimeLocked(serviceID string) {
	svc, ok := s.services[serviceID]
	if !ok {
		return
	}

	now := s.clock.Now()
	records := s.recordsSinceLocked(serviceID, now.Add(-s.window))
	if len(records) == 0 {
		return
	}

	up := 0
	for _, r := range records {
		if r.Status == domain.CheckOutcomeUp {
			up++
		}
	}

	svc.Uptime = roundPercent(100 * float64(up) / float64(len(records)))
	svc.UpdatedAt = now
}

func roundPercent(v float64) float64 {
	v = math.Round(v*100) / 100
	return math.Min(100, math.Max(0, v))
}
