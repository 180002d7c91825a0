package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/game"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	"github.com/gridplay/boxgame/internal/domain/offer"
)

// Store is the in-memory game.Store used by tests and local runs. Writes
// apply immediately; the serialization guarantee comes from the per-entry
// and per-(team, position) mutexes, which mirror the row locks the postgres
// store takes.
type Store struct {
	mu sync.RWMutex

	entries map[string]entry.TeamEntry
	boxes   map[string][]box.Audit
	offers  map[string]offer.Offer
	events  map[string][]gameevent.Event

	lockMu      sync.Mutex
	entryLocks  map[string]*sync.Mutex
	createLocks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		entries:     make(map[string]entry.TeamEntry),
		boxes:       make(map[string][]box.Audit),
		offers:      make(map[string]offer.Offer),
		events:      make(map[string][]gameevent.Event),
		entryLocks:  make(map[string]*sync.Mutex),
		createLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) WithEntry(ctx context.Context, teamEntryID string, fn func(ctx context.Context, tx game.Tx) error) error {
	if teamEntryID == "" {
		return fmt.Errorf("team entry id is required")
	}

	lock := s.keyedLock(s.entryLocks, teamEntryID)
	lock.Lock()
	defer lock.Unlock()

	return fn(ctx, s.tx())
}

func (s *Store) WithNewEntry(ctx context.Context, teamID string, position entry.Position, fn func(ctx context.Context, tx game.Tx) error) error {
	if teamID == "" {
		return fmt.Errorf("team id is required")
	}

	lock := s.keyedLock(s.createLocks, teamID+"::"+string(position))
	lock.Lock()
	defer lock.Unlock()

	return fn(ctx, s.tx())
}

func (s *Store) Reader() game.Tx {
	return s.tx()
}

func (s *Store) tx() game.Tx {
	return &storeTx{
		entries: &EntryRepository{store: s},
		boxes:   &BoxRepository{store: s},
		offers:  &OfferRepository{store: s},
		events:  &EventRepository{store: s},
	}
}

func (s *Store) keyedLock(locks map[string]*sync.Mutex, key string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := locks[key]
	if !ok {
		lock = &sync.Mutex{}
		locks[key] = lock
	}
	return lock
}

type storeTx struct {
	entries *EntryRepository
	boxes   *BoxRepository
	offers  *OfferRepository
	events  *EventRepository
}

func (t *storeTx) Entries() entry.Repository    { return t.entries }
func (t *storeTx) Boxes() box.Repository        { return t.boxes }
func (t *storeTx) Offers() offer.Repository     { return t.offers }
func (t *storeTx) Events() gameevent.Repository { return t.events }

func generationKey(teamEntryID string, resetNumber int) string {
	return fmt.Sprintf("%s::%d", teamEntryID, resetNumber)
}
