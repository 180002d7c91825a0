package gameevent

import "context"

// Repository is the append-only event log. Rows are never mutated or
// deleted; ListByEntry returns them in append order.
type Repository interface {
	Append(ctx context.Context, item Event) error
	ListByEntry(ctx context.Context, teamEntryID string) ([]Event, error)
}
