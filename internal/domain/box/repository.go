package box

import "context"

// Repository exposes box audit persistence operations.
//
// UpdateStatus must reject transitions not permitted by CanTransition so a
// terminal row can never move backward within its generation.
type Repository interface {
	InsertGeneration(ctx context.Context, items []Audit) error
	ListGeneration(ctx context.Context, teamEntryID string, resetNumber int) ([]Audit, error)
	GetBox(ctx context.Context, teamEntryID string, resetNumber, boxNumber int) (Audit, bool, error)
	UpdateStatus(ctx context.Context, teamEntryID string, resetNumber, boxNumber int, from, to Status) error
}
