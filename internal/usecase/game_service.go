package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/game"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	"github.com/gridplay/boxgame/internal/domain/offer"
	idgen "github.com/gridplay/boxgame/internal/platform/id"
	"github.com/gridplay/boxgame/internal/platform/logging"
	"github.com/gridplay/boxgame/internal/platform/randsrc"
)

// eliminationBatches fixes how many boxes each round opens. The schedule
// removes 8 boxes in total, so with one selected box a 10-box pool always
// ends the fourth round with exactly two concealed boxes.
var eliminationBatches = [4]int{3, 2, 2, 1}

// RequiredPoolSize is the only generation size the elimination schedule
// supports.
const RequiredPoolSize = 10

// GameService drives a live entry through the elimination rounds and the
// terminal decision: select, accept, decline, keep, swap. Every operation
// runs inside one entry-locked transaction and re-validates against fresh
// state before writing.
type GameService struct {
	store  game.Store
	pool   *BoxPoolGenerator
	rand   randsrc.Source
	idGen  idgen.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewGameService(
	store game.Store,
	pool *BoxPoolGenerator,
	rand randsrc.Source,
	idGen idgen.Generator,
	logger *logging.Logger,
) *GameService {
	if logger == nil {
		logger = logging.Default()
	}

	return &GameService{
		store:  store,
		pool:   pool,
		rand:   rand,
		idGen:  idGen,
		logger: logger,
		now:    time.Now,
	}
}

// SelectBox locks in the player's blind pick, runs the first elimination
// batch, and presents the first banker offer.
func (s *GameService) SelectBox(ctx context.Context, teamEntryID string, boxNumber int) (EntryState, error) {
	ctx, span := startUsecaseSpan(ctx, "GameService.SelectBox")
	defer span.End()

	teamEntryID = strings.TrimSpace(teamEntryID)
	if teamEntryID == "" {
		return EntryState{}, fmt.Errorf("%w: team entry id is required", ErrInvalidInput)
	}
	if boxNumber <= 0 {
		return EntryState{}, fmt.Errorf("%w: box number must be greater than zero", ErrInvalidInput)
	}

	var state EntryState
	err := s.store.WithEntry(ctx, teamEntryID, func(ctx context.Context, tx game.Tx) error {
		item, err := getPlayingEntry(ctx, tx, teamEntryID)
		if err != nil {
			return err
		}
		if item.SelectedBox != nil || item.Round != entry.RoundUnselected {
			return fmt.Errorf("%w: a box is already selected for entry %s", ErrStateConflict, teamEntryID)
		}

		target, exists, err := tx.Boxes().GetBox(ctx, item.ID, item.ResetCount, boxNumber)
		if err != nil {
			return fmt.Errorf("get box: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: box %d", ErrNotFound, boxNumber)
		}
		if target.Status != box.StatusAvailable {
			return fmt.Errorf("%w: box %d is %s", ErrStateConflict, boxNumber, target.Status)
		}

		now := s.now().UTC()
		if err := tx.Boxes().UpdateStatus(ctx, item.ID, item.ResetCount, boxNumber, box.StatusAvailable, box.StatusSelected); err != nil {
			return fmt.Errorf("select box %d: %w", boxNumber, err)
		}

		selected := boxNumber
		item.SelectedBox = &selected
		item.Round = entry.RoundFirst

		round := item.Round
		if err := tx.Events().Append(ctx, gameevent.Event{
			TeamEntryID: item.ID,
			Type:        gameevent.TypeBoxSelected,
			ResetNumber: item.ResetCount,
			Round:       &round,
			Payload:     gameevent.BoxSelectedPayload(boxNumber),
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("append box_selected event: %w", err)
		}

		if err := s.eliminateRound(ctx, tx, item, item.Round, now); err != nil {
			return err
		}
		pending, err := s.makeOffer(ctx, tx, item, item.Round, now)
		if err != nil {
			return err
		}

		item.UpdatedAt = now
		if err := tx.Entries().Update(ctx, item); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		item.Version++

		boxes, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
		if err != nil {
			return fmt.Errorf("list current generation: %w", err)
		}
		state = EntryState{Entry: item, Boxes: boxes, PendingOffer: &pending}
		return nil
	})
	if err != nil {
		return EntryState{}, err
	}

	s.logger.InfoContext(ctx, "box selected",
		"entry_id", state.Entry.ID,
		"box_number", boxNumber,
		"offer_value", state.PendingOffer.Value,
	)

	return state, nil
}

// AcceptOffer takes the banker's deal: it resolves the pending offer, opens
// every remaining box, and finishes the entry with the offered player.
func (s *GameService) AcceptOffer(ctx context.Context, teamEntryID string) (EntryState, error) {
	ctx, span := startUsecaseSpan(ctx, "GameService.AcceptOffer")
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
		pending, hasPending, err := tx.Offers().GetPending(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("get pending offer: %w", err)
		}
		if !hasPending {
			return fmt.Errorf("%w: entry %s has no pending offer", ErrStateConflict, teamEntryID)
		}

		now := s.now().UTC()
		if err := tx.Offers().Resolve(ctx, pending.ID, offer.StatusAccepted, now); err != nil {
			return fmt.Errorf("resolve offer: %w", err)
		}

		round := pending.Round
		if err := tx.Events().Append(ctx, gameevent.Event{
			TeamEntryID: item.ID,
			Type:        gameevent.TypeOfferAccepted,
			ResetNumber: item.ResetCount,
			Round:       &round,
			Payload:     gameevent.OfferPayload(pending.ID, pending.Value, offerSnapshot(pending)),
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("append offer_accepted event: %w", err)
		}

		// Reveal everything still concealed, selected box included via the
		// end event payload.
		current, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
		if err != nil {
			return fmt.Errorf("list current generation: %w", err)
		}
		for _, b := range current {
			if b.Status != box.StatusAvailable {
				continue
			}
			if err := s.eliminateBox(ctx, tx, item, b, pending.Round, now); err != nil {
				return err
			}
		}

		final := offerSnapshot(pending)
		if err := s.markFinished(ctx, tx, &item, gameevent.FinishAccept, 0, final, pending.Round, now); err != nil {
			return err
		}

		boxes, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
		if err != nil {
			return fmt.Errorf("list current generation: %w", err)
		}
		state = EntryState{Entry: item, Boxes: boxes, FinalPlayer: &final}
		return nil
	})
	if err != nil {
		return EntryState{}, err
	}

	s.logger.InfoContext(ctx, "offer accepted",
		"entry_id", state.Entry.ID,
		"final_player_id", state.Entry.FinalPlayerID,
	)

	return state, nil
}

// DeclineOffer rejects the pending offer and advances the game: the next
// elimination batch runs, followed by a fresh offer in rounds 2 and 3, or by
// the keep-or-swap decision after the fourth round.
func (s *GameService) DeclineOffer(ctx context.Context, teamEntryID string) (EntryState, error) {
	ctx, span := startUsecaseSpan(ctx, "GameService.DeclineOffer")
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
		pending, hasPending, err := tx.Offers().GetPending(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("get pending offer: %w", err)
		}
		if !hasPending {
			return fmt.Errorf("%w: entry %s has no pending offer", ErrStateConflict, teamEntryID)
		}

		now := s.now().UTC()
		if err := tx.Offers().Resolve(ctx, pending.ID, offer.StatusRejected, now); err != nil {
			return fmt.Errorf("resolve offer: %w", err)
		}

		round := pending.Round
		if err := tx.Events().Append(ctx, gameevent.Event{
			TeamEntryID: item.ID,
			Type:        gameevent.TypeOfferRejected,
			ResetNumber: item.ResetCount,
			Round:       &round,
			Payload:     gameevent.OfferPayload(pending.ID, pending.Value, offerSnapshot(pending)),
			CreatedAt:   now,
		}); err != nil {
			return fmt.Errorf("append offer_rejected event: %w", err)
		}

		item.Round = pending.Round + 1
		if err := s.eliminateRound(ctx, tx, item, item.Round, now); err != nil {
			return err
		}

		if item.Round < entry.RoundLast {
			next, err := s.makeOffer(ctx, tx, item, item.Round, now)
			if err != nil {
				return err
			}
			state.PendingOffer = &next
		} else {
			item.Round = entry.RoundDecision
		}

		item.UpdatedAt = now
		if err := tx.Entries().Update(ctx, item); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		item.Version++

		boxes, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
		if err != nil {
			return fmt.Errorf("list current generation: %w", err)
		}
		state.Entry = item
		state.Boxes = boxes
		return nil
	})
	if err != nil {
		return EntryState{}, err
	}

	s.logger.InfoContext(ctx, "offer declined",
		"entry_id", state.Entry.ID,
		"round", state.Entry.Round,
	)

	return state, nil
}

// Keep finishes the game with the originally selected box.
func (s *GameService) Keep(ctx context.Context, teamEntryID string) (EntryState, error) {
	ctx, span := startUsecaseSpan(ctx, "GameService.Keep")
	defer span.End()

	return s.finalDecision(ctx, teamEntryID, gameevent.FinishKeep)
}

// Swap trades the selected box for the last survivor and finishes with it.
func (s *GameService) Swap(ctx context.Context, teamEntryID string) (EntryState, error) {
	ctx, span := startUsecaseSpan(ctx, "GameService.Swap")
	defer span.End()

	return s.finalDecision(ctx, teamEntryID, gameevent.FinishSwap)
}

func (s *GameService) finalDecision(ctx context.Context, teamEntryID string, source gameevent.FinishSource) (EntryState, error) {
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
		if item.Round != entry.RoundDecision {
			return fmt.Errorf("%w: entry %s is in round %d, keep/swap requires the final decision round", ErrStateConflict, teamEntryID, item.Round)
		}
		if item.SelectedBox == nil {
			return fmt.Errorf("%w: entry %s reached the decision round without a selected box", ErrDataIntegrity, teamEntryID)
		}

		current, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
		if err != nil {
			return fmt.Errorf("list current generation: %w", err)
		}
		selected, survivor, err := decisionBoxes(current, *item.SelectedBox)
		if err != nil {
			s.logger.ErrorContext(ctx, "audit trail corrupted", "entry_id", item.ID, "error", err)
			return err
		}

		now := s.now().UTC()
		var final gameevent.PlayerSnapshot
		var finalBox int
		switch source {
		case gameevent.FinishKeep:
			if err := s.eliminateBox(ctx, tx, item, survivor, item.Round, now); err != nil {
				return err
			}
			final = playerSnapshot(selected)
			finalBox = selected.BoxNumber
		case gameevent.FinishSwap:
			if err := tx.Boxes().UpdateStatus(ctx, item.ID, item.ResetCount, selected.BoxNumber, box.StatusSelected, box.StatusSwapped); err != nil {
				return fmt.Errorf("swap out box %d: %w", selected.BoxNumber, err)
			}
			if err := tx.Boxes().UpdateStatus(ctx, item.ID, item.ResetCount, survivor.BoxNumber, box.StatusAvailable, box.StatusSelected); err != nil {
				return fmt.Errorf("swap in box %d: %w", survivor.BoxNumber, err)
			}
			n := survivor.BoxNumber
			item.SelectedBox = &n
			final = playerSnapshot(survivor)
			finalBox = survivor.BoxNumber
		default:
			return fmt.Errorf("%w: unknown finish source %s", ErrInvalidInput, source)
		}

		if err := s.markFinished(ctx, tx, &item, source, finalBox, final, entry.RoundDecision, now); err != nil {
			return err
		}

		boxes, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
		if err != nil {
			return fmt.Errorf("list current generation: %w", err)
		}
		state = EntryState{Entry: item, Boxes: boxes, FinalPlayer: &final}
		return nil
	})
	if err != nil {
		return EntryState{}, err
	}

	s.logger.InfoContext(ctx, "entry finished",
		"entry_id", state.Entry.ID,
		"source", source,
		"final_player_id", state.Entry.FinalPlayerID,
	)

	return state, nil
}

// eliminateRound opens the round's batch of boxes, chosen uniformly at
// random among the concealed non-selected ones. The concealed count is
// checked against the schedule first; a mismatch means the audit trail no
// longer matches the game and the move must not proceed.
func (s *GameService) eliminateRound(ctx context.Context, tx game.Tx, item entry.TeamEntry, round int, now time.Time) error {
	if round < entry.RoundFirst || round > entry.RoundLast {
		return fmt.Errorf("%w: no elimination batch for round %d", ErrStateConflict, round)
	}

	current, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
	if err != nil {
		return fmt.Errorf("list current generation: %w", err)
	}

	available := make([]box.Audit, 0, len(current))
	for _, b := range current {
		if b.Status == box.StatusAvailable {
			available = append(available, b)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i].BoxNumber < available[j].BoxNumber })

	expected := item.PoolSize - 1
	for _, batch := range eliminationBatches[:round-1] {
		expected -= batch
	}
	if len(available) != expected {
		err := fmt.Errorf("%w: entry %s round %d has %d concealed boxes, expected %d", ErrDataIntegrity, item.ID, round, len(available), expected)
		s.logger.ErrorContext(ctx, "audit trail corrupted", "entry_id", item.ID, "error", err)
		return err
	}

	s.rand.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})

	for _, b := range available[:eliminationBatches[round-1]] {
		if err := s.eliminateBox(ctx, tx, item, b, round, now); err != nil {
			return err
		}
	}

	return nil
}

func (s *GameService) eliminateBox(ctx context.Context, tx game.Tx, item entry.TeamEntry, b box.Audit, round int, now time.Time) error {
	if err := tx.Boxes().UpdateStatus(ctx, item.ID, item.ResetCount, b.BoxNumber, box.StatusAvailable, box.StatusEliminated); err != nil {
		return fmt.Errorf("eliminate box %d: %w", b.BoxNumber, err)
	}

	r := round
	if err := tx.Events().Append(ctx, gameevent.Event{
		TeamEntryID: item.ID,
		Type:        gameevent.TypeBoxEliminated,
		ResetNumber: item.ResetCount,
		Round:       &r,
		Payload:     gameevent.BoxEliminatedPayload(b.BoxNumber, playerSnapshot(b)),
		CreatedAt:   now,
	}); err != nil {
		return fmt.Errorf("append box_eliminated event: %w", err)
	}

	return nil
}

// makeOffer computes the banker's buyout for the round and matches it to the
// closest leftover player. Boxed players and previously offered players are
// out of reach; an exhausted leftover pool is a capacity failure.
func (s *GameService) makeOffer(ctx context.Context, tx game.Tx, item entry.TeamEntry, round int, now time.Time) (offer.Offer, error) {
	current, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
	if err != nil {
		return offer.Offer{}, fmt.Errorf("list current generation: %w", err)
	}
	value := OfferValue(remainingPoints(current))

	pool, err := s.pool.Pool(ctx, item.Position, item.Week)
	if err != nil {
		return offer.Offer{}, err
	}

	excluded := make(map[string]struct{}, len(current))
	for _, b := range current {
		excluded[b.PlayerID] = struct{}{}
	}
	offered, err := tx.Offers().ListOfferedPlayerIDs(ctx, item.ID, item.ResetCount)
	if err != nil {
		return offer.Offer{}, fmt.Errorf("list offered players: %w", err)
	}
	for _, playerID := range offered {
		excluded[playerID] = struct{}{}
	}

	candidate, ok := OfferCandidate(pool, value, excluded)
	if !ok {
		return offer.Offer{}, fmt.Errorf("%w: leftover pool exhausted for entry %s", ErrCapacity, item.ID)
	}

	offerID, err := s.idGen.NewID("off")
	if err != nil {
		return offer.Offer{}, fmt.Errorf("generate offer id: %w", err)
	}

	pending := offer.Offer{
		ID:              offerID,
		TeamEntryID:     item.ID,
		ResetNumber:     item.ResetCount,
		Round:           round,
		Value:           value,
		PlayerID:        candidate.PlayerID,
		PlayerName:      candidate.PlayerName,
		InjuryStatus:    candidate.InjuryStatus,
		ProjectedPoints: candidate.ProjectedPoints,
		Status:          offer.StatusPending,
		CreatedAt:       now,
	}
	if err := pending.Validate(); err != nil {
		return offer.Offer{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := tx.Offers().Create(ctx, pending); err != nil {
		return offer.Offer{}, fmt.Errorf("create offer: %w", err)
	}

	r := round
	if err := tx.Events().Append(ctx, gameevent.Event{
		TeamEntryID: item.ID,
		Type:        gameevent.TypeOfferMade,
		ResetNumber: item.ResetCount,
		Round:       &r,
		Payload:     gameevent.OfferPayload(pending.ID, pending.Value, offerSnapshot(pending)),
		CreatedAt:   now,
	}); err != nil {
		return offer.Offer{}, fmt.Errorf("append offer_made event: %w", err)
	}

	return pending, nil
}

func (s *GameService) markFinished(ctx context.Context, tx game.Tx, item *entry.TeamEntry, source gameevent.FinishSource, finalBox int, final gameevent.PlayerSnapshot, round int, now time.Time) error {
	item.Status = entry.StatusFinished
	item.FinalPlayerID = final.PlayerID
	item.UpdatedAt = now

	r := round
	if err := tx.Events().Append(ctx, gameevent.Event{
		TeamEntryID: item.ID,
		Type:        gameevent.TypeEnd,
		ResetNumber: item.ResetCount,
		Round:       &r,
		Payload:     gameevent.EndPayload(source, finalBox, final),
		CreatedAt:   now,
	}); err != nil {
		return fmt.Errorf("append end event: %w", err)
	}

	if err := tx.Entries().Update(ctx, *item); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	item.Version++

	return nil
}

func decisionBoxes(current []box.Audit, selectedBox int) (box.Audit, box.Audit, error) {
	var selected, survivor box.Audit
	foundSelected := false
	survivors := 0
	for _, b := range current {
		switch b.Status {
		case box.StatusSelected:
			selected = b
			foundSelected = true
		case box.StatusAvailable:
			survivor = b
			survivors++
		}
	}
	if !foundSelected || selected.BoxNumber != selectedBox {
		return box.Audit{}, box.Audit{}, fmt.Errorf("%w: selected box %d is missing from the audit trail", ErrDataIntegrity, selectedBox)
	}
	if survivors != 1 {
		return box.Audit{}, box.Audit{}, fmt.Errorf("%w: decision round has %d concealed boxes, expected 1", ErrDataIntegrity, survivors)
	}

	return selected, survivor, nil
}
