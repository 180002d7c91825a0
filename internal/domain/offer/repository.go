package offer

import (
	"context"
	"time"
)

// Repository exposes banker offer persistence operations.
//
// Create must reject a second pending offer for the same entry. Resolve moves
// a pending offer to a terminal status and stamps the resolution time.
type Repository interface {
	Create(ctx context.Context, item Offer) error
	GetPending(ctx context.Context, teamEntryID string) (Offer, bool, error)
	Resolve(ctx context.Context, offerID string, status Status, resolvedAt time.Time) error
	ListOfferedPlayerIDs(ctx context.Context, teamEntryID string, resetNumber int) ([]string, error)
}
