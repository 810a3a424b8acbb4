package monitor

import (
	"time"

	"github.com/bissquit/uptime-dashboard/internal/domain"
)

// Classify derives a service status from one probe outcome.
// Transport errors and 5xx are a major outage, 4xx a partial outage,
// and a successful response slower than threshold is degraded.
// A received error status wins over a failure reading its body.
func Classify(statusCode int, elapsed time.Duration, err error, threshold time.Duration) domain.ServiceStatus {
	switch {
	case statusCode >= 500:
		return domain.ServiceStatusMajorOutage
	case statusCode >= 400:
		return domain.ServiceStatusPartialOutage
	case err != nil:
		return domain.ServiceStatusMajorOutage
	case elapsed.Milliseconds() > threshold.Milliseconds():
		return domain.ServiceStatusDegraded
	default:
		return domain.ServiceStatusOperational
	}
}
