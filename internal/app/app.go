// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/uptime-dashboard/internal/catalog"
	"github.com/bissquit/uptime-dashboard/internal/config"
	"github.com/bissquit/uptime-dashboard/internal/dashboard"
	"github.com/bissquit/uptime-dashboard/internal/demo"
	"github.com/bissquit/uptime-dashboard/internal/incidents"
	"github.com/bissquit/uptime-dashboard/internal/monitor"
	"github.com/bissquit/uptime-dashboard/internal/pkg/ctxlog"
	"github.com/bissquit/uptime-dashboard/internal/pkg/httputil"
	"github.com/bissquit/uptime-dashboard/internal/pkg/metrics"
	"github.com/bissquit/uptime-dashboard/internal/store"
	"github.com/bissquit/uptime-dashboard/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const statusMetricsInterval = 15 * time.Second

// Option customizes App construction.
type Option func(*App)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(a *App) {
		a.clock = clock
	}
}

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	clock         clockwork.Clock
	store         *store.Store
	tracker       *incidents.Tracker
	prober        *monitor.Prober
	server        *http.Server
	metricsServer *http.Server
	bgCtx         context.Context
	bgCancel      context.CancelFunc
}

// New creates a new application instance.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())

	app := &App{
		config:   cfg,
		logger:   initLogger(cfg.Log),
		clock:    clockwork.NewRealClock(),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
	for _, opt := range opts {
		opt(app)
	}
	slog.SetDefault(app.logger)

	app.store = store.New(store.Config{
		UptimeWindow: cfg.Uptime.Window(),
		Clock:        app.clock,
	})
	app.tracker = incidents.NewTracker(app.store, app.clock)
	app.prober = monitor.NewProber(monitor.Config{
		Interval:          cfg.Monitor.Interval,
		Timeout:           cfg.Monitor.Timeout,
		DegradedThreshold: cfg.Monitor.DegradedThreshold,
		MaxConcurrency:    cfg.Monitor.MaxConcurrency,
		RateLimit:         cfg.Monitor.RateLimit,
		UserAgent:         cfg.Monitor.UserAgent,
	}, app.store, app.store, app.tracker, app.clock)

	if cfg.Demo.Enabled {
		if _, err := demo.NewSeeder(app.store, app.clock, nil).Seed(bgCtx); err != nil {
			bgCancel()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.setupRouter(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the prober and the HTTP servers. It blocks until the API
// server stops.
func (a *App) Run() error {
	go a.collectStatusMetrics(a.bgCtx)

	if a.config.Monitor.Enabled {
		a.prober.Start(a.bgCtx)
	} else {
		a.logger.Warn("health prober is disabled: service statuses change only through the API")
	}

	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown stops the prober first, then both servers in parallel.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	a.prober.Stop()
	a.bgCancel()

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	return errors.Join(errs...)
}

func (a *App) collectStatusMetrics(ctx context.Context) {
	a.recordStatusMetrics(ctx)

	ticker := a.clock.NewTicker(statusMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			a.recordStatusMetrics(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) recordStatusMetrics(ctx context.Context) {
	services, err := a.store.ListServices(ctx)
	if err != nil {
		a.logger.Error("failed to list services for metrics", "error", err)
		return
	}
	metrics.RecordServiceStatuses(services)

	active, err := a.tracker.ListActive(ctx)
	if err != nil {
		a.logger.Error("failed to list incidents for metrics", "error", err)
		return
	}
	metrics.RecordActiveIncidents(len(active))
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Prober returns the health prober. Used in tests to drive rounds.
func (a *App) Prober() *monitor.Prober {
	return a.prober
}

func (a *App) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.config.Monitor.Timeout + 30*time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	catalogHandler := catalog.NewHandler(catalog.NewService(a.store, a.config.Uptime.DefaultHistoryDays))
	incidentsHandler := incidents.NewHandler(a.tracker)
	dashboardHandler := dashboard.NewHandler(dashboard.NewAggregator(a.store, a.tracker))
	monitorHandler := monitor.NewHandler(a.prober)

	r.Route("/api/v1", func(r chi.Router) {
		dashboardHandler.RegisterRoutes(r)
		catalogHandler.RegisterRoutes(r)
		incidentsHandler.RegisterRoutes(r)
		monitorHandler.RegisterRoutes(r)
	})

	return r
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

// readyzHandler reports ready once statuses reflect at least one probe round.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if a.config.Monitor.Enabled && a.prober.LastRound() == nil {
		ctxlog.FromContext(r.Context()).Debug("readiness check: first health round not completed")
		httputil.Text(w, http.StatusServiceUnavailable, "Health round pending")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
