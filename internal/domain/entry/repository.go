package entry

import "context"

// Repository exposes team entry persistence operations.
//
// Create must enforce the single-active-entry invariant per (teamID,
// position) and report a conflict when another non-finished entry exists.
// Update must apply an optimistic version check against TeamEntry.Version.
type Repository interface {
	GetByID(ctx context.Context, id string) (TeamEntry, bool, error)
	GetActiveByTeamPosition(ctx context.Context, teamID string, position Position) (TeamEntry, bool, error)
	Create(ctx context.Context, item TeamEntry) error
	Update(ctx context.Context, item TeamEntry) error
}
