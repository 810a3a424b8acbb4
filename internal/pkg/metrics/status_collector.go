package metrics

import (
	"github.com/bissquit/uptime-dashboard/internal/domain"
)

var knownStatuses = []domain.ServiceStatus{
	domain.ServiceStatusOperational,
	domain.ServiceStatusDegraded,
	domain.ServiceStatusPartialOutage,
	domain.ServiceStatusMajorOutage,
	domain.ServiceStatusUnknown,
}

// RecordServiceStatuses updates the per-status service gauge.
// Every status is written so a status that drops to zero is reported as zero.
func RecordServiceStatuses(services []domain.Service) {
	counts := make(map[domain.ServiceStatus]int, len(knownStatuses))
	for _, svc := range services {
		counts[svc.Status]++
	}

	for _, status := range knownStatuses {
		ServicesByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

// RecordActiveIncidents updates the active incidents gauge.
func RecordActiveIncidents(n int) {
	ActiveIncidents.Set(float64(n))
}
