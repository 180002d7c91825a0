package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/game"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	"github.com/gridplay/boxgame/internal/platform/logging"
)

// VerifyResult reports whether one entry's denormalized rows agree with the
// state replayed from its event log.
type VerifyResult struct {
	TeamEntryID string   `json:"team_entry_id"`
	OK          bool     `json:"ok"`
	Problems    []string `json:"problems,omitempty"`
}

// ReplayService serves the event log and the replay-based integrity check.
// The log is the canonical record; Verify catches denormalized rows that
// have drifted from it.
type ReplayService struct {
	store   game.Store
	logger  *logging.Logger
	workers int
}

func NewReplayService(store game.Store, workers int, logger *logging.Logger) *ReplayService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers < 1 {
		workers = 4
	}

	return &ReplayService{
		store:   store,
		logger:  logger,
		workers: workers,
	}
}

// Events returns the full append-only log for an entry, in append order.
func (s *ReplayService) Events(ctx context.Context, teamEntryID string) ([]gameevent.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "ReplayService.Events")
	defer span.End()

	teamEntryID = strings.TrimSpace(teamEntryID)
	if teamEntryID == "" {
		return nil, fmt.Errorf("%w: team entry id is required", ErrInvalidInput)
	}

	tx := s.store.Reader()
	if _, exists, err := tx.Entries().GetByID(ctx, teamEntryID); err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, teamEntryID)
	}

	events, err := tx.Events().ListByEntry(ctx, teamEntryID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return events, nil
}

// Verify replays each entry's log on a bounded worker pool and diffs the
// result against the stored rows.
func (s *ReplayService) Verify(ctx context.Context, teamEntryIDs []string) ([]VerifyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ReplayService.Verify")
	defer span.End()

	ids := make([]string, 0, len(teamEntryIDs))
	for _, id := range teamEntryIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: team entry id cannot be empty", ErrInvalidInput)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: team entry ids are required", ErrInvalidInput)
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("start verify pool: %w", err)
	}
	defer pool.Release()

	results := make([]VerifyResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = s.verifyEntry(ctx, id)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = VerifyResult{TeamEntryID: id, Problems: []string{fmt.Sprintf("verify not scheduled: %v", submitErr)}}
		}
	}
	wg.Wait()

	for _, r := range results {
		if !r.OK {
			s.logger.ErrorContext(ctx, "replay verification failed",
				"entry_id", r.TeamEntryID,
				"problems", r.Problems,
			)
		}
	}

	return results, nil
}

func (s *ReplayService) verifyEntry(ctx context.Context, teamEntryID string) VerifyResult {
	result := VerifyResult{TeamEntryID: teamEntryID}

	tx := s.store.Reader()
	item, exists, err := tx.Entries().GetByID(ctx, teamEntryID)
	if err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("get entry: %v", err))
		return result
	}
	if !exists {
		result.Problems = append(result.Problems, "entry not found")
		return result
	}

	events, err := tx.Events().ListByEntry(ctx, teamEntryID)
	if err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("list events: %v", err))
		return result
	}
	replayed, err := gameevent.Replay(events)
	if err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("replay: %v", err))
		return result
	}

	if replayed.ResetNumber != item.ResetCount {
		result.Problems = append(result.Problems, fmt.Sprintf("reset count: log=%d row=%d", replayed.ResetNumber, item.ResetCount))
	}
	if replayed.Round != item.Round {
		result.Problems = append(result.Problems, fmt.Sprintf("round: log=%d row=%d", replayed.Round, item.Round))
	}
	if !equalBoxRef(replayed.SelectedBox, item.SelectedBox) {
		result.Problems = append(result.Problems, fmt.Sprintf("selected box: log=%s row=%s", boxRef(replayed.SelectedBox), boxRef(item.SelectedBox)))
	}
	if replayed.Finished != (item.Status == entry.StatusFinished) {
		result.Problems = append(result.Problems, fmt.Sprintf("finished: log=%t row=%s", replayed.Finished, item.Status))
	}

	current, err := tx.Boxes().ListGeneration(ctx, item.ID, item.ResetCount)
	if err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("list boxes: %v", err))
		return result
	}
	if len(current) != len(replayed.Boxes) {
		result.Problems = append(result.Problems, fmt.Sprintf("box count: log=%d rows=%d", len(replayed.Boxes), len(current)))
	}
	for _, b := range current {
		logBox, ok := replayed.Boxes[b.BoxNumber]
		if !ok {
			result.Problems = append(result.Problems, fmt.Sprintf("box %d missing from log", b.BoxNumber))
			continue
		}
		if logBox.Status != b.Status {
			result.Problems = append(result.Problems, fmt.Sprintf("box %d status: log=%s row=%s", b.BoxNumber, logBox.Status, b.Status))
		}
		if logBox.Player.PlayerID != b.PlayerID {
			result.Problems = append(result.Problems, fmt.Sprintf("box %d player: log=%s row=%s", b.BoxNumber, logBox.Player.PlayerID, b.PlayerID))
		}
	}

	pending, hasPending, err := tx.Offers().GetPending(ctx, item.ID)
	if err != nil {
		result.Problems = append(result.Problems, fmt.Sprintf("get pending offer: %v", err))
		return result
	}
	switch {
	case hasPending && replayed.PendingOffer == nil:
		result.Problems = append(result.Problems, fmt.Sprintf("pending offer %s missing from log", pending.ID))
	case !hasPending && replayed.PendingOffer != nil:
		result.Problems = append(result.Problems, fmt.Sprintf("log has pending offer %s, rows have none", replayed.PendingOffer.OfferID))
	case hasPending && replayed.PendingOffer.OfferID != pending.ID:
		result.Problems = append(result.Problems, fmt.Sprintf("pending offer: log=%s row=%s", replayed.PendingOffer.OfferID, pending.ID))
	}

	result.OK = len(result.Problems) == 0
	return result
}

func equalBoxRef(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boxRef(n *int) string {
	if n == nil {
		return "unset"
	}
	return fmt.Sprintf("%d", *n)
}
