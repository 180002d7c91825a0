package usecase

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/projection"
	"github.com/gridplay/boxgame/internal/infrastructure/repository/memory"
	"github.com/gridplay/boxgame/internal/platform/logging"
	"github.com/gridplay/boxgame/internal/platform/randsrc"
)

type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) NewID(prefix string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s_%04d", prefix, g.n), nil
}

const (
	testWeek     = 5
	testSettings = "ls-standard"
)

// testPool builds n QB projections in feed order with strictly decreasing
// projected points, so candidate tie-breaks are predictable.
func testPool(n int) []projection.Projection {
	pool := make([]projection.Projection, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, projection.Projection{
			PlayerID:        fmt.Sprintf("qb-%02d", i+1),
			PlayerName:      fmt.Sprintf("Quarterback %02d", i+1),
			Position:        "QB",
			Team:            "DAL",
			Opponent:        "PHI",
			Week:            testWeek,
			ProjectedPoints: 30 - float64(2*i),
			InjuryStatus:    "",
		})
	}
	return pool
}

type gameHarness struct {
	store   *memory.Store
	source  *memory.ProjectionSource
	entries *EntryService
	games   *GameService
	replays *ReplayService
	now     time.Time
}

func newGameHarness(t *testing.T, seed int64) *gameHarness {
	t.Helper()

	store := memory.NewStore()
	source := memory.NewProjectionSource()
	source.Set("QB", testWeek, testPool(14))

	rand := randsrc.NewSeeded(seed)
	pool := NewBoxPoolGenerator(source, rand)
	idGen := &seqIDGenerator{}
	logger := logging.NewNop()

	h := &gameHarness{
		store:   store,
		source:  source,
		entries: NewEntryService(store, pool, idGen, logger),
		games:   NewGameService(store, pool, rand, idGen, logger),
		replays: NewReplayService(store, 2, logger),
		now:     time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC),
	}
	h.entries.now = func() time.Time { return h.now }
	h.games.now = func() time.Time { return h.now }
	return h
}

func (h *gameHarness) createQBEntry(t *testing.T, teamID string) EntryState {
	t.Helper()

	state, err := h.entries.CreateEntry(t.Context(), CreateEntryInput{
		TeamID:           teamID,
		Position:         "QB",
		Week:             testWeek,
		LeagueSettingsID: testSettings,
	})
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}
	return state
}

// advanceToDecision selects box 1 and declines every offer, leaving the entry
// in the keep-or-swap round.
func (h *gameHarness) advanceToDecision(t *testing.T, entryID string) EntryState {
	t.Helper()

	state, err := h.games.SelectBox(t.Context(), entryID, 1)
	if err != nil {
		t.Fatalf("select box failed: %v", err)
	}
	for state.PendingOffer != nil {
		state, err = h.games.DeclineOffer(t.Context(), entryID)
		if err != nil {
			t.Fatalf("decline offer failed: %v", err)
		}
	}
	return state
}

func countBoxes(boxes []box.Audit, status box.Status) int {
	count := 0
	for _, b := range boxes {
		if b.Status == status {
			count++
		}
	}
	return count
}
