package projection

import (
	"context"
	"fmt"
)

// Projection is one player's forecast for a given week, as served by the
// projections feed. The engine treats it as read-only input.
type Projection struct {
	PlayerID        string
	PlayerName      string
	Position        string
	Team            string
	Opponent        string
	Week            int
	ProjectedPoints float64
	InjuryStatus    string
}

func (p Projection) Validate() error {
	if p.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.PlayerName == "" {
		return fmt.Errorf("player name is required")
	}
	if p.ProjectedPoints < 0 {
		return fmt.Errorf("projected points cannot be negative")
	}

	return nil
}

// Source serves weekly projections for one position. Implementations decide
// ordering; callers must not rely on it.
type Source interface {
	Projections(ctx context.Context, position string, week int) ([]Projection, error)
}
