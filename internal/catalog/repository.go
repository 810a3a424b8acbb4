package catalog

import (
	"context"

	"github.com/bissquit/uptime-dashboard/internal/domain"
)

// Repository defines the interface for service registry and ledger operations.
type Repository interface {
	CreateService(ctx context.Context, service *domain.Service) error
	GetService(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context) ([]domain.Service, error)
	UpdateService(ctx context.Context, id string, patch domain.ServicePatch) (*domain.Service, error)
	DeleteService(ctx context.Context, id string) error

	History(ctx context.Context, serviceID string, days int) ([]domain.UptimeRecord, error)
}
