package usecase

import (
	"errors"
	"sync"
	"testing"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/infrastructure/repository/memory"
	"github.com/gridplay/boxgame/internal/platform/logging"
	"github.com/gridplay/boxgame/internal/platform/randsrc"
)

func TestCreateEntry(t *testing.T) {
	h := newGameHarness(t, 42)

	state := h.createQBEntry(t, "team-1")

	if state.Entry.Status != entry.StatusPlaying {
		t.Fatalf("expected status playing, got %s", state.Entry.Status)
	}
	if state.Entry.Round != entry.RoundUnselected {
		t.Fatalf("expected round 0, got %d", state.Entry.Round)
	}
	if state.Entry.Version != 2 {
		t.Fatalf("expected version 2 after create+start, got %d", state.Entry.Version)
	}
	if state.Entry.PoolSize != RequiredPoolSize {
		t.Fatalf("expected pool size %d, got %d", RequiredPoolSize, state.Entry.PoolSize)
	}
	if len(state.Boxes) != RequiredPoolSize {
		t.Fatalf("expected %d boxes, got %d", RequiredPoolSize, len(state.Boxes))
	}

	seen := make(map[int]bool, len(state.Boxes))
	for _, b := range state.Boxes {
		if b.Status != box.StatusAvailable {
			t.Fatalf("box %d: expected available, got %s", b.BoxNumber, b.Status)
		}
		if b.BoxNumber < 1 || b.BoxNumber > RequiredPoolSize {
			t.Fatalf("box number %d out of range", b.BoxNumber)
		}
		if seen[b.BoxNumber] {
			t.Fatalf("duplicate box number %d", b.BoxNumber)
		}
		seen[b.BoxNumber] = true
	}
}

func TestCreateEntry_InvalidInput(t *testing.T) {
	h := newGameHarness(t, 42)

	cases := []struct {
		name  string
		input CreateEntryInput
	}{
		{"bad position", CreateEntryInput{TeamID: "team-1", Position: "GK", Week: testWeek, LeagueSettingsID: testSettings}},
		{"missing team", CreateEntryInput{Position: "QB", Week: testWeek, LeagueSettingsID: testSettings}},
		{"zero week", CreateEntryInput{TeamID: "team-1", Position: "QB", LeagueSettingsID: testSettings}},
		{"missing settings", CreateEntryInput{TeamID: "team-1", Position: "QB", Week: testWeek}},
		{"wrong pool size", CreateEntryInput{TeamID: "team-1", Position: "QB", Week: testWeek, LeagueSettingsID: testSettings, PoolSize: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.entries.CreateEntry(t.Context(), tc.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreateEntry_DuplicateActive(t *testing.T) {
	h := newGameHarness(t, 42)
	h.createQBEntry(t, "team-1")

	_, err := h.entries.CreateEntry(t.Context(), CreateEntryInput{
		TeamID:           "team-1",
		Position:         "QB",
		Week:             testWeek,
		LeagueSettingsID: testSettings,
	})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict for a second active QB game, got %v", err)
	}
}

func TestCreateEntry_ConcurrentSameTeamPosition(t *testing.T) {
	h := newGameHarness(t, 42)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.entries.CreateEntry(t.Context(), CreateEntryInput{
				TeamID:           "team-race",
				Position:         "QB",
				Week:             testWeek,
				LeagueSettingsID: testSettings,
			})
		}()
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrStateConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
		conflicts++
	}
	if conflicts != 1 {
		t.Fatalf("expected exactly one conflict, got %d (errs=%v)", conflicts, errs)
	}
}

func TestCreateEntry_ShortProjectionPool(t *testing.T) {
	store := memory.NewStore()
	source := memory.NewProjectionSource()
	source.Set("QB", testWeek, testPool(7))
	pool := NewBoxPoolGenerator(source, randsrc.NewSeeded(1))
	service := NewEntryService(store, pool, &seqIDGenerator{}, logging.NewNop())

	_, err := service.CreateEntry(t.Context(), CreateEntryInput{
		TeamID:           "team-1",
		Position:         "QB",
		Week:             testWeek,
		LeagueSettingsID: testSettings,
	})
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity with a 7-player pool, got %v", err)
	}
}

func TestResetEntry(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	state, err := h.entries.ResetEntry(t.Context(), created.Entry.ID)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if state.Entry.ResetCount != 1 {
		t.Fatalf("expected reset count 1, got %d", state.Entry.ResetCount)
	}
	if len(state.Boxes) != RequiredPoolSize {
		t.Fatalf("expected %d fresh boxes, got %d", RequiredPoolSize, len(state.Boxes))
	}
	if got := countBoxes(state.Boxes, box.StatusAvailable); got != RequiredPoolSize {
		t.Fatalf("expected all fresh boxes available, got %d", got)
	}

	old, err := h.store.Reader().Boxes().ListGeneration(t.Context(), created.Entry.ID, 0)
	if err != nil {
		t.Fatalf("list old generation: %v", err)
	}
	if got := countBoxes(old, box.StatusReset); got != RequiredPoolSize {
		t.Fatalf("expected %d retired boxes in generation 0, got %d", RequiredPoolSize, got)
	}
}

func TestResetEntry_AfterSelection(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	if _, err := h.games.SelectBox(t.Context(), created.Entry.ID, 3); err != nil {
		t.Fatalf("select box failed: %v", err)
	}

	if _, err := h.entries.ResetEntry(t.Context(), created.Entry.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict resetting after selection, got %v", err)
	}
}

func TestGetEntry_NotFound(t *testing.T) {
	h := newGameHarness(t, 42)

	if _, err := h.entries.GetEntry(t.Context(), "ent_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetEntry_ReturnsPendingOffer(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	if _, err := h.games.SelectBox(t.Context(), created.Entry.ID, 1); err != nil {
		t.Fatalf("select box failed: %v", err)
	}

	state, err := h.entries.GetEntry(t.Context(), created.Entry.ID)
	if err != nil {
		t.Fatalf("get entry failed: %v", err)
	}
	if state.PendingOffer == nil {
		t.Fatal("expected a pending offer after the first elimination round")
	}
	if state.Entry.Round != entry.RoundFirst {
		t.Fatalf("expected round 1, got %d", state.Entry.Round)
	}
}
