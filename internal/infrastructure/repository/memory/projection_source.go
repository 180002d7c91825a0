package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridplay/boxgame/internal/domain/projection"
)

// ProjectionSource is a fixture-backed projection.Source for tests and local
// runs without the projections feed.
type ProjectionSource struct {
	mu    sync.RWMutex
	pools map[string][]projection.Projection
}

func NewProjectionSource() *ProjectionSource {
	return &ProjectionSource{pools: make(map[string][]projection.Projection)}
}

func (s *ProjectionSource) Set(position string, week int, pool []projection.Projection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pools[poolKey(position, week)] = append([]projection.Projection(nil), pool...)
}

func (s *ProjectionSource) Projections(_ context.Context, position string, week int) ([]projection.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool, ok := s.pools[poolKey(position, week)]
	if !ok {
		return nil, fmt.Errorf("no projections loaded for %s week %d", position, week)
	}

	return append([]projection.Projection(nil), pool...), nil
}

func poolKey(position string, week int) string {
	return fmt.Sprintf("%s::%d", position, week)
}
