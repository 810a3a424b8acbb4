// Package monitor provides the periodic HTTP health prober.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/bissquit/uptime-dashboard/internal/pkg/ctxlog"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// maxDrainBytes bounds how much of a response body is read before closing.
const maxDrainBytes = 64 << 10

// Config contains prober configuration.
type Config struct {
	Interval          time.Duration
	Timeout           time.Duration
	DegradedThreshold time.Duration
	// MaxConcurrency limits in-flight probes per round. Zero means unlimited.
	MaxConcurrency int
	// RateLimit caps probe starts per second. Zero means unlimited.
	RateLimit float64
	UserAgent string
}

// DefaultConfig returns default prober configuration.
func DefaultConfig() Config {
	return Config{
		Interval:          5 * time.Minute,
		Timeout:           10 * time.Second,
		DegradedThreshold: 2 * time.Second,
		UserAgent:         "uptime-dashboard",
	}
}

// ServiceLister provides the set of services to probe.
type ServiceLister interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
}

// ResultRecorder stores a probe result and returns the status the service
// had before the result was applied.
type ResultRecorder interface {
	RecordCheck(ctx context.Context, result domain.HealthCheckResult) (domain.ServiceStatus, *domain.Service, error)
}

// IncidentOpener opens an incident for a failing service.
type IncidentOpener interface {
	Open(ctx context.Context, result domain.HealthCheckResult, service domain.Service) (*domain.Incident, error)
}

// RoundReport summarizes one round.
type RoundReport struct {
	StartedAt       time.Time                    `json:"started_at"`
	DurationMs      int64                        `json:"duration_ms"`
	Checked         int                          `json:"checked"`
	Failed          int                          `json:"failed"`
	Skipped         int                          `json:"skipped"`
	IncidentsOpened int                          `json:"incidents_opened"`
	ByStatus        map[domain.ServiceStatus]int `json:"by_status"`
}

// Prober probes every registered service on a fixed interval.
type Prober struct {
	config    Config
	services  ServiceLister
	recorder  ResultRecorder
	incidents IncidentOpener
	client    *http.Client
	clock     clockwork.Clock
	limiter   *rate.Limiter

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	lastRound atomic.Pointer[RoundReport]
}

// NewProber creates a new prober. A nil clock means the wall clock.
func NewProber(config Config, services ServiceLister, recorder ResultRecorder, incidents IncidentOpener, clock clockwork.Clock) *Prober {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RateLimit > 0 {
		burst := int(config.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &Prober{
		config:    config,
		services:  services,
		recorder:  recorder,
		incidents: incidents,
		// Per-probe deadlines come from the request context.
		client:  &http.Client{},
		clock:   clock,
		limiter: limiter,
	}
}

// Start runs a round immediately and then one per interval until Stop is
// called or ctx is cancelled. Starting a running prober replaces its schedule.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	slog.Info("starting health prober",
		"interval", p.config.Interval,
		"timeout", p.config.Timeout,
		"max_concurrency", p.config.MaxConcurrency,
	)

	go p.run(loopCtx, done)
}

// Stop cancels the schedule and waits for an in-flight round to finish.
// It is safe to call in any state.
func (p *Prober) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
}

func (p *Prober) stopLocked() {
	if p.cancel == nil {
		return
	}

	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil

	slog.Info("health prober stopped")
}

// Running reports whether the schedule is active.
func (p *Prober) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// LastRound returns the report of the most recently completed round, or nil.
func (p *Prober) LastRound() *RoundReport {
	return p.lastRound.Load()
}

func (p *Prober) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := p.clock.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.RunOnce(ctx)
		}
	}
}

type probeOutcome struct {
	recorded       bool
	status         domain.ServiceStatus
	failed         bool
	incidentOpened bool
}

// RunOnce probes every service registered at call time and returns after
// all probes have settled. A failing probe never affects the others.
// A deadline on ctx does not cut the round short; only cancellation does.
func (p *Prober) RunOnce(ctx context.Context) RoundReport {
	ctx, cancel := withoutDeadline(ctx)
	defer cancel()

	startedAt := p.clock.Now()
	ctx = ctxlog.With(ctx, "round_started_at", startedAt)
	logger := ctxlog.FromContext(ctx)

	report := RoundReport{
		StartedAt: startedAt,
		ByStatus:  make(map[domain.ServiceStatus]int),
	}

	services, err := p.services.ListServices(ctx)
	if err != nil {
		logger.Error("failed to list services for health round", "error", err)
		return report
	}

	logger.Debug("health round started", "services", len(services))

	outcomes := make([]probeOutcome, len(services))

	var g errgroup.Group
	if p.config.MaxConcurrency > 0 {
		g.SetLimit(p.config.MaxConcurrency)
	}

	for i, svc := range services {
		g.Go(func() error {
			outcomes[i] = p.probe(ctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if !o.recorded {
			report.Skipped++
			continue
		}
		report.Checked++
		report.ByStatus[o.status]++
		if o.failed {
			report.Failed++
		}
		if o.incidentOpened {
			report.IncidentsOpened++
		}
	}

	finishedAt := p.clock.Now()
	duration := finishedAt.Sub(startedAt)
	report.DurationMs = duration.Milliseconds()

	recordRound(duration, finishedAt)
	p.lastRound.Store(&report)

	logger.Info("health round completed",
		"checked", report.Checked,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"incidents_opened", report.IncidentsOpened,
		"duration_ms", report.DurationMs,
	)

	return report
}

// withoutDeadline returns a context carrying ctx's values that is cancelled
// when ctx is cancelled but not when its deadline passes.
func withoutDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	detached, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if errors.Is(ctx.Err(), context.Canceled) {
		cancel()
		return detached, cancel
	}

	stop := context.AfterFunc(ctx, func() {
		if errors.Is(ctx.Err(), context.Canceled) {
			cancel()
		}
	})
	return detached, func() {
		stop()
		cancel()
	}
}

func (p *Prober) probe(ctx context.Context, svc domain.Service) probeOutcome {
	if err := p.limiter.Wait(ctx); err != nil {
		ctxlog.FromContext(ctx).Debug("health round cancelled before probe",
			"service_id", svc.ID,
			"error", err,
		)
		return probeOutcome{}
	}

	result, ok := p.check(ctx, svc)
	if !ok {
		return probeOutcome{}
	}

	return p.handleResult(ctx, svc, result)
}

// check performs one probe. It returns false when the round itself was
// cancelled, in which case the result says nothing about the service.
func (p *Prober) check(ctx context.Context, svc domain.Service) (domain.HealthCheckResult, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	start := p.clock.Now()
	statusCode, err := p.get(probeCtx, svc.URL)
	elapsed := p.clock.Since(start)

	if err != nil && ctx.Err() != nil {
		return domain.HealthCheckResult{}, false
	}

	result := domain.HealthCheckResult{
		ServiceID:      svc.ID,
		Status:         Classify(statusCode, elapsed, err, p.config.DegradedThreshold),
		ResponseTimeMs: elapsed.Milliseconds(),
		Timestamp:      p.clock.Now(),
	}

	switch {
	case statusCode >= 400:
		result.Error = fmt.Sprintf("Request failed with status code %d", statusCode)
	case err != nil:
		result.Error = err.Error()
	}

	return result, true
}

func (p *Prober) get(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if p.config.UserAgent != "" {
		req.Header.Set("User-Agent", p.config.UserAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			ctxlog.FromContext(ctx).Debug("failed to close probe response body", "url", url, "error", err)
		}
	}()

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)); err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, nil
}

func (p *Prober) handleResult(ctx context.Context, svc domain.Service, result domain.HealthCheckResult) probeOutcome {
	logger := ctxlog.FromContext(ctx).With("service_id", svc.ID, "service", svc.Name)

	previous, updated, err := p.recorder.RecordCheck(ctx, result)
	switch {
	case errors.Is(err, domain.ErrServiceNotFound):
		logger.Debug("service removed during round, dropping result")
		return probeOutcome{}
	case errors.Is(err, domain.ErrStaleRecord):
		logger.Debug("newer result already recorded, dropping result")
		return probeOutcome{}
	case err != nil:
		logger.Error("failed to record check result", "error", err)
		return probeOutcome{}
	}

	recordProbe(result.Status, result.ResponseTimeMs)

	outcome := probeOutcome{
		recorded: true,
		status:   result.Status,
		failed:   result.Error != "",
	}

	if result.Status == domain.ServiceStatusOperational {
		logger.Debug("service checked",
			"status", result.Status,
			"response_time_ms", result.ResponseTimeMs,
		)
	} else {
		logger.Warn("service check failed",
			"status", result.Status,
			"response_time_ms", result.ResponseTimeMs,
			"error", result.Error,
		)
	}

	if previous == domain.ServiceStatusOperational && result.Status != domain.ServiceStatusOperational {
		incident, err := p.incidents.Open(ctx, result, *updated)
		if err != nil {
			logger.Error("failed to open incident", "error", err)
			return outcome
		}
		recordIncidentOpened(incident.Severity)
		outcome.incidentOpened = true
	}

	return outcome
}
