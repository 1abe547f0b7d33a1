package ports

import (
	"context"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

// DatasetListener is called after a new dataset snapshot becomes current.
type DatasetListener func(ctx context.Context, previous, current *entities.Dataset)

type DatasetProvider interface {
	Current() *entities.Dataset
	Regenerate(ctx context.Context, seed int64) (*entities.Dataset, error)
	Subscribe(listener DatasetListener)
}
