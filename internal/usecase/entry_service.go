package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/game"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	idgen "github.com/gridplay/boxgame/internal/platform/id"
	"github.com/gridplay/boxgame/internal/platform/logging"
)

// CreateEntryInput is the incoming payload for starting a game.
type CreateEntryInput struct {
	TeamID           string
	Position         string
	Week             int
	LeagueSettingsID string
	PoolSize         int
}

// EntryService owns the TeamEntry lifecycle: creation, reset, finish, and
// the read-side state view. It is the only writer of TeamEntry rows.
type EntryService struct {
	store  game.Store
	pool   *BoxPoolGenerator
	idGen  idgen.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewEntryService(
	store game.Store,
	pool *BoxPoolGenerator,
	idGen idgen.Generator,
	logger *logging.Logger,
) *EntryService {
	if logger == nil {
		logger = logging.Default()
	}

	return &EntryService{
		store:  store,
		pool:   pool,
		idGen:  idGen,
		logger: logger,
		now:    time.Now,
	}
}

// CreateEntry starts a new game for a (team, position) pair: it writes the
// entry, draws the first box generation, and moves the entry to playing, all
// in one transaction. A second active entry for the same pair is rejected.
func (s *EntryService) CreateEntry(ctx context.Context, input CreateEntryInput) (EntryState, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryService.CreateEntry")
	defer span.End()

	input.TeamID = strings.TrimSpace(input.TeamID)
	input.Position = strings.TrimSpace(strings.ToUpper(input.Position))
	input.LeagueSettingsID = strings.TrimSpace(input.LeagueSettingsID)

	if input.TeamID == "" {
		return EntryState{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	position := entry.Position(input.Position)
	if _, ok := entry.AllPositions[position]; !ok {
		return EntryState{}, fmt.Errorf("%w: invalid position %q", ErrInvalidInput, input.Position)
	}
	if input.Week <= 0 {
		return EntryState{}, fmt.Errorf("%w: week must be greater than zero", ErrInvalidInput)
	}
	if input.LeagueSettingsID == "" {
		return EntryState{}, fmt.Errorf("%w: league settings id is required", ErrInvalidInput)
	}
	if input.PoolSize == 0 {
		input.PoolSize = RequiredPoolSize
	}
	if input.PoolSize != RequiredPoolSize {
		return EntryState{}, fmt.Errorf("%w: pool size must be %d to fit the elimination schedule", ErrInvalidInput, RequiredPoolSize)
	}

	var state EntryState
	err := s.store.WithNewEntry(ctx, input.TeamID, position, func(ctx context.Context, tx game.Tx) error {
		_, exists, err := tx.Entries().GetActiveByTeamPosition(ctx, input.TeamID, position)
		if err != nil {
			return fmt.Errorf("get active entry: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: team %s already has an active %s game", ErrStateConflict, input.TeamID, position)
		}

		entryID, err := s.idGen.NewID("ent")
		if err != nil {
			return fmt.Errorf("generate entry id: %w", err)
		}

		now := s.now().UTC()
		item := entry.TeamEntry{
			ID:               entryID,
			TeamID:           input.TeamID,
			Position:         position,
			Week:             input.Week,
			LeagueSettingsID: input.LeagueSettingsID,
			PoolSize:         input.PoolSize,
			ResetCount:       0,
			Round:            entry.RoundUnselected,
			Status:           entry.StatusPending,
			Version:          1,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := item.ValidateBasic(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := tx.Entries().Create(ctx, item); err != nil {
			return fmt.Errorf("create entry: %w", err)
		}

		if err := tx.Events().Append(ctx, gameevent.Event{
			TeamEntryID: item.ID,
			Type:        gameevent.TypeStart,
			ResetNumber: 0,
			Payload:     gameevent.StartPayload(string(position), input.Week),
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("append start event: %w", err)
		}

		boxes, err := s.generateBoxes(ctx, tx, &item, now)
		if err != nil {
			return err
		}

		item.Status = entry.StatusPlaying
		item.UpdatedAt = now
		if err := tx.Entries().Update(ctx, item); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		item.Version++

		state = EntryState{Entry: item, Boxes: boxes}
		return nil
	})
	if err != nil {
		return EntryState{}, err
	}

	s.logger.InfoContext(ctx, "entry created",
		"entry_id", state.Entry.ID,
		"team_id", state.Entry.TeamID,
		"position", state.Entry.Position,
		"week", state.Entry.Week,
		"pool_size", state.Entry.PoolSize,
	)

	return state, nil
}

// ResetEntry discards the current box generation and draws a fresh one. It
// is allowed only while no box has been selected.
func (s *EntryService) ResetEntry(ctx context.Context, teamEntryID string) (EntryState, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryService.ResetEntry")
	defer span.End()

	teamEntryID = strings.TrimSpace(teamEntryID)
	if teamEntryID == "" {
		return EntryState{}, fmt.Errorf("%w: team entry id is required", ErrInvalidInput)
	}

	var state EntryState
	err := s.store.WithEntry(ctx, teamEntryID, func(ctx context.Context, tx game.Tx) error {
		item, err := getPlayingEntry(ctx, tx, teamEntryID)
		if err != nil {
			return err
		}
		if item.SelectedBox != nil {
			return fmt.Errorf("%w: cannot reset after a box has been selected", ErrStateConflict)
		}

		now := s.now().UTC()
		current, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
		if err != nil {
			return fmt.Errorf("list current generation: %w", err)
		}
		for _, b := range current {
			if b.Status != box.StatusAvailable {
				continue
			}
			if err := tx.Boxes().UpdateStatus(ctx, item.ID, item.ResetCount, b.BoxNumber, box.StatusAvailable, box.StatusReset); err != nil {
				return fmt.Errorf("retire box %d: %w", b.BoxNumber, err)
			}
		}

		item.ResetCount++
		if err := tx.Events().Append(ctx, gameevent.Event{
			TeamEntryID: item.ID,
			Type:        gameevent.TypeReset,
			ResetNumber: item.ResetCount,
			Payload:     gameevent.ResetPayload(item.PoolSize),
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("append reset event: %w", err)
		}

		boxes, err := s.generateBoxes(ctx, tx, &item, now)
		if err != nil {
			return err
		}

		item.UpdatedAt = now
		if err := tx.Entries().Update(ctx, item); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		item.Version++

		state = EntryState{Entry: item, Boxes: boxes}
		return nil
	})
	if err != nil {
		return EntryState{}, err
	}

	s.logger.InfoContext(ctx, "entry reset",
		"entry_id", state.Entry.ID,
		"reset_count", state.Entry.ResetCount,
	)

	return state, nil
}

// GetEntry returns the current state view: entry, current-generation boxes,
// pending offer, and the final player once finished.
func (s *EntryService) GetEntry(ctx context.Context, teamEntryID string) (EntryState, error) {
	ctx, span := startUsecaseSpan(ctx, "EntryService.GetEntry")
	defer span.End()

	teamEntryID = strings.TrimSpace(teamEntryID)
	if teamEntryID == "" {
		return EntryState{}, fmt.Errorf("%w: team entry id is required", ErrInvalidInput)
	}

	tx := s.store.Reader()
	item, exists, err := tx.Entries().GetByID(ctx, teamEntryID)
	if err != nil {
		return EntryState{}, fmt.Errorf("get entry: %w", err)
	}
	if !exists {
		return EntryState{}, fmt.Errorf("%w: entry %s", ErrNotFound, teamEntryID)
	}

	boxes, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
	if err != nil {
		return EntryState{}, fmt.Errorf("list current generation: %w", err)
	}

	state := EntryState{Entry: item, Boxes: boxes}

	pending, hasPending, err := tx.Offers().GetPending(ctx, item.ID)
	if err != nil {
		return EntryState{}, fmt.Errorf("get pending offer: %w", err)
	}
	if hasPending {
		state.PendingOffer = &pending
	}

	if item.Status == entry.StatusFinished {
		final, err := finalPlayerFromLog(ctx, tx, item.ID)
		if err != nil {
			return EntryState{}, err
		}
		state.FinalPlayer = final
	}

	return state, nil
}

// generateBoxes draws and persists one generation for the entry's current
// resetCount and appends the boxes_generated event.
func (s *EntryService) generateBoxes(ctx context.Context, tx game.Tx, item *entry.TeamEntry, now time.Time) ([]box.Audit, error) {
	boxes, err := s.pool.Generate(ctx, item.ID, item.Position, item.Week, item.PoolSize, item.ResetCount, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Boxes().InsertGeneration(ctx, boxes); err != nil {
		return nil, fmt.Errorf("insert box generation: %w", err)
	}

	snapshots := make([]gameevent.BoxSnapshot, 0, len(boxes))
	for _, b := range boxes {
		snapshots = append(snapshots, gameevent.BoxSnapshot{
			BoxNumber: b.BoxNumber,
			Player:    playerSnapshot(b),
		})
	}
	if err := tx.Events().Append(ctx, gameevent.Event{
		TeamEntryID: item.ID,
		Type:        gameevent.TypeBoxesGenerated,
		ResetNumber: item.ResetCount,
		Payload:     gameevent.BoxesGeneratedPayload(item.PoolSize, snapshots),
		CreatedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("append boxes_generated event: %w", err)
	}

	return boxes, nil
}

func getPlayingEntry(ctx context.Context, tx game.Tx, teamEntryID string) (entry.TeamEntry, error) {
	item, exists, err := tx.Entries().GetByID(ctx, teamEntryID)
	if err != nil {
		return entry.TeamEntry{}, fmt.Errorf("get entry: %w", err)
	}
	if !exists {
		return entry.TeamEntry{}, fmt.Errorf("%w: entry %s", ErrNotFound, teamEntryID)
	}
	if item.Status == entry.StatusFinished {
		return entry.TeamEntry{}, fmt.Errorf("%w: entry %s is finished", ErrStateConflict, teamEntryID)
	}
	if item.Status != entry.StatusPlaying {
		return entry.TeamEntry{}, fmt.Errorf("%w: entry %s is not playing", ErrStateConflict, teamEntryID)
	}

	return item, nil
}

func finalPlayerFromLog(ctx context.Context, tx game.Tx, teamEntryID string) (*gameevent.PlayerSnapshot, error) {
	events, err := tx.Events().ListByEntry(ctx, teamEntryID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == gameevent.TypeEnd {
			return events[i].Payload.Player, nil
		}
	}

	return nil, fmt.Errorf("%w: finished entry %s has no end event", ErrDataIntegrity, teamEntryID)
}
