package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

var ErrDatasetNotReady = errors.New("dataset has not been generated yet")

type pinnedDatasetKey struct{}

// WithDataset pins a snapshot so every view built under ctx reads the same
// dataset, even if a regeneration swaps the current one meanwhile.
func WithDataset(ctx context.Context, ds *entities.Dataset) context.Context {
	return context.WithValue(ctx, pinnedDatasetKey{}, ds)
}

// snapshot returns the dataset pinned on ctx, or the provider's current one.
func snapshot(ctx context.Context, datasets ports.DatasetProvider) *entities.Dataset {
	if ds, ok := ctx.Value(pinnedDatasetKey{}).(*entities.Dataset); ok && ds != nil {
		return ds
	}
	return datasets.Current()
}

type DatasetGenerator interface {
	Generate(seed int64) (*entities.Dataset, error)
}

// DatasetStore holds the current dataset snapshot. Readers get the pointer
// without locking; regenerations are serialised and swap the pointer only
// once the new snapshot is complete.
type DatasetStore struct {
	generator DatasetGenerator
	current   atomic.Pointer[entities.Dataset]

	mu        sync.Mutex
	listeners []ports.DatasetListener

	logger logger.Logger
}

func NewDatasetStore(generator DatasetGenerator, log logger.Logger) *DatasetStore {
	return &DatasetStore{
		generator: generator,
		logger:    logger.Component(log, "dataset_store"),
	}
}

func (s *DatasetStore) Current() *entities.Dataset {
	return s.current.Load()
}

// Regenerate builds a new snapshot from seed (0 picks a random one), makes it
// current and notifies listeners.
func (s *DatasetStore) Regenerate(ctx context.Context, seed int64) (*entities.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds, err := s.generator.Generate(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dataset: %w", err)
	}

	previous := s.current.Swap(ds)

	fields := map[string]interface{}{"seed": ds.Seed, "version": ds.Version}
	if previous != nil {
		fields["previous_version"] = previous.Version
	}
	s.logger.WithFields(fields).Info("Dataset snapshot replaced")

	for _, listener := range s.listeners {
		listener(ctx, previous, ds)
	}

	return ds, nil
}

func (s *DatasetStore) Subscribe(listener ports.DatasetListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}
