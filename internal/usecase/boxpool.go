package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/projection"
	"github.com/gridplay/boxgame/internal/platform/randsrc"
)

// BoxPoolGenerator draws one generation of boxes for an entry: the top
// poolSize players from the projection feed, shuffled into box numbers
// 1..poolSize. Randomness is injected so a seeded source yields a
// reproducible assignment.
type BoxPoolGenerator struct {
	source projection.Source
	rand   randsrc.Source
}

func NewBoxPoolGenerator(source projection.Source, rand randsrc.Source) *BoxPoolGenerator {
	return &BoxPoolGenerator{
		source: source,
		rand:   rand,
	}
}

// Pool returns the deduplicated projection pool for a position/week, in feed
// order. Feed order is significant: it is the tie-break order for banker
// offer candidates.
func (g *BoxPoolGenerator) Pool(ctx context.Context, position entry.Position, week int) ([]projection.Projection, error) {
	pool, err := g.source.Projections(ctx, string(position), week)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch projections: %v", ErrDependencyUnavailable, err)
	}

	deduped := make([]projection.Projection, 0, len(pool))
	seen := make(map[string]struct{}, len(pool))
	for _, p := range pool {
		if p.PlayerID == "" {
			continue
		}
		if _, ok := seen[p.PlayerID]; ok {
			continue
		}
		seen[p.PlayerID] = struct{}{}
		deduped = append(deduped, p)
	}

	return deduped, nil
}

// Generate builds the audit rows for one reset generation. The first
// poolSize players of the pool are sampled, then shuffled so box numbers
// carry no ranking information.
func (g *BoxPoolGenerator) Generate(ctx context.Context, teamEntryID string, position entry.Position, week, poolSize, resetNumber int, now time.Time) ([]box.Audit, error) {
	pool, err := g.Pool(ctx, position, week)
	if err != nil {
		return nil, err
	}
	if len(pool) < poolSize {
		return nil, fmt.Errorf("%w: projection pool has %d players, need %d", ErrCapacity, len(pool), poolSize)
	}

	sample := make([]projection.Projection, poolSize)
	copy(sample, pool[:poolSize])
	g.rand.Shuffle(len(sample), func(i, j int) {
		sample[i], sample[j] = sample[j], sample[i]
	})

	items := make([]box.Audit, 0, poolSize)
	for i, p := range sample {
		item := box.Audit{
			TeamEntryID:     teamEntryID,
			ResetNumber:     resetNumber,
			BoxNumber:       i + 1,
			PlayerID:        p.PlayerID,
			PlayerName:      p.PlayerName,
			ProjectedPoints: p.ProjectedPoints,
			InjuryStatus:    p.InjuryStatus,
			Status:          box.StatusAvailable,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("%w: box %d: %v", ErrInvalidInput, item.BoxNumber, err)
		}
		items = append(items, item)
	}

	return items, nil
}
