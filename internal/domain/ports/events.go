package ports

import (
	"context"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

type EventPublisher interface {
	PublishDatasetEvent(ctx context.Context, event entities.DatasetEvent) error
	HealthCheck(ctx context.Context) error
	Close() error
}
