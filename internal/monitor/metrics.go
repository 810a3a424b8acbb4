package monitor

import (
	"time"

	"github.com/bissquit/uptime-dashboard/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "uptimedashboard"

var (
	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "probes_total",
			Help:      "Total probes recorded by resulting service status",
		},
		[]string{"status"},
	)

	probeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "probe_duration_seconds",
			Help:      "Time from request start to fully read response",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2, 5, 10},
		},
	)

	roundDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "round_duration_seconds",
			Help:      "Time to probe every registered service once",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	incidentsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "incidents_opened_total",
			Help:      "Incidents opened on a transition away from operational",
		},
		[]string{"severity"},
	)

	lastRoundTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "last_round_timestamp_seconds",
			Help:      "Unix time the last round completed",
		},
	)
)

func recordProbe(status domain.ServiceStatus, responseTimeMs int64) {
	probesTotal.WithLabelValues(string(status)).Inc()
	probeDuration.Observe(float64(responseTimeMs) / 1000)
}

func recordIncidentOpened(severity domain.IncidentSeverity) {
	incidentsOpened.WithLabelValues(string(severity)).Inc()
}

func recordRound(duration time.Duration, finishedAt time.Time) {
	roundDuration.Observe(duration.Seconds())
	lastRoundTimestamp.Set(float64(finishedAt.Unix()))
}
