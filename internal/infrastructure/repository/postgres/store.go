package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/game"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	"github.com/gridplay/boxgame/internal/domain/offer"
)

// Store is the postgres game.Store. Each WithEntry call runs inside one
// transaction holding a row lock on the entry, so concurrent moves against
// the same game serialize at the database.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithEntry(ctx context.Context, teamEntryID string, fn func(ctx context.Context, tx game.Tx) error) error {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin entry tx: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	// Lock the entry row for the whole move. A missing row is not an error
	// here; fn re-reads and reports not-found itself.
	const lockQuery = `SELECT id FROM team_entries WHERE public_id = $1 FOR UPDATE`
	var rowID int64
	if err := dbTx.GetContext(ctx, &rowID, lockQuery, teamEntryID); err != nil && !isNotFound(err) {
		return fmt.Errorf("lock entry %s: %w", teamEntryID, err)
	}

	if err := fn(ctx, newStoreTx(dbTx)); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit entry tx: %w", err)
	}

	return nil
}

func (s *Store) WithNewEntry(ctx context.Context, teamID string, position entry.Position, fn func(ctx context.Context, tx game.Tx) error) error {
	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tx: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	// No entry row exists yet, so the single-active-game invariant is
	// guarded by an advisory lock on the (team, position) pair. The partial
	// unique index on team_entries backstops it.
	const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := dbTx.ExecContext(ctx, lockQuery, teamID+"::"+string(position)); err != nil {
		return fmt.Errorf("lock team %s position %s: %w", teamID, position, err)
	}

	if err := fn(ctx, newStoreTx(dbTx)); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit create tx: %w", err)
	}

	return nil
}

func (s *Store) Reader() game.Tx {
	return newStoreTx(s.db)
}

type storeTx struct {
	entries *EntryRepository
	boxes   *BoxRepository
	offers  *OfferRepository
	events  *EventRepository
}

func newStoreTx(q sqlx.ExtContext) *storeTx {
	return &storeTx{
		entries: &EntryRepository{q: q},
		boxes:   &BoxRepository{q: q},
		offers:  &OfferRepository{q: q},
		events:  &EventRepository{q: q},
	}
}

func (t *storeTx) Entries() entry.Repository    { return t.entries }
func (t *storeTx) Boxes() box.Repository        { return t.boxes }
func (t *storeTx) Offers() offer.Repository     { return t.offers }
func (t *storeTx) Events() gameevent.Repository { return t.events }
