package game

import (
	"context"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	"github.com/gridplay/boxgame/internal/domain/offer"
)

// Tx groups the repositories that participate in one atomic game move. All
// writes issued through a Tx commit or roll back together.
type Tx interface {
	Entries() entry.Repository
	Boxes() box.Repository
	Offers() offer.Repository
	Events() gameevent.Repository
}

// Store is the unit-of-work boundary for the game engine.
//
// WithEntry runs fn while holding an exclusive lock on the given entry, so
// concurrent moves against the same entry serialize instead of interleaving.
// The postgres implementation locks the entry row for the duration of the
// transaction; the in-memory implementation holds a per-entry mutex. fn
// returning an error rolls the whole move back.
//
// WithNewEntry is the creation variant: no entry row exists yet, so the lock
// is taken on the (teamID, position) pair that the single-active-entry
// invariant protects.
type Store interface {
	WithEntry(ctx context.Context, teamEntryID string, fn func(ctx context.Context, tx Tx) error) error
	WithNewEntry(ctx context.Context, teamID string, position entry.Position, fn func(ctx context.Context, tx Tx) error) error
	Reader() Tx
}
