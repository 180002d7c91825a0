package usecase

import (
	"errors"
	"testing"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
)

func TestSelectBox(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	state, err := h.games.SelectBox(t.Context(), created.Entry.ID, 4)
	if err != nil {
		t.Fatalf("select box failed: %v", err)
	}

	if state.Entry.Round != entry.RoundFirst {
		t.Fatalf("expected round 1, got %d", state.Entry.Round)
	}
	if state.Entry.SelectedBox == nil || *state.Entry.SelectedBox != 4 {
		t.Fatalf("expected selected box 4, got %v", state.Entry.SelectedBox)
	}
	if got := countBoxes(state.Boxes, box.StatusSelected); got != 1 {
		t.Fatalf("expected 1 selected box, got %d", got)
	}
	if got := countBoxes(state.Boxes, box.StatusEliminated); got != 3 {
		t.Fatalf("expected 3 eliminated boxes after round 1, got %d", got)
	}
	if got := countBoxes(state.Boxes, box.StatusAvailable); got != 6 {
		t.Fatalf("expected 6 concealed boxes after round 1, got %d", got)
	}

	if state.PendingOffer == nil {
		t.Fatal("expected a pending offer")
	}
	if want := OfferValue(remainingPoints(state.Boxes)); state.PendingOffer.Value != want {
		t.Fatalf("offer value %v does not match remaining boxes, want %v", state.PendingOffer.Value, want)
	}
	for _, b := range state.Boxes {
		if b.PlayerID == state.PendingOffer.PlayerID {
			t.Fatalf("offered player %s is boxed in this generation", b.PlayerID)
		}
	}
}

func TestSelectBox_Twice(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	if _, err := h.games.SelectBox(t.Context(), created.Entry.ID, 1); err != nil {
		t.Fatalf("select box failed: %v", err)
	}
	if _, err := h.games.SelectBox(t.Context(), created.Entry.ID, 2); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on second selection, got %v", err)
	}
}

func TestSelectBox_UnknownBox(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	if _, err := h.games.SelectBox(t.Context(), created.Entry.ID, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for box 99, got %v", err)
	}
}

func TestDeclineOffer_ProgressesRounds(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	state, err := h.games.SelectBox(t.Context(), created.Entry.ID, 1)
	if err != nil {
		t.Fatalf("select box failed: %v", err)
	}

	offered := map[string]bool{state.PendingOffer.PlayerID: true}

	// Rounds 2 and 3 each eliminate their batch and produce a fresh offer.
	wantEliminated := []int{5, 7}
	for i, round := range []int{2, 3} {
		state, err = h.games.DeclineOffer(t.Context(), created.Entry.ID)
		if err != nil {
			t.Fatalf("decline in round %d failed: %v", round, err)
		}
		if state.Entry.Round != round {
			t.Fatalf("expected round %d, got %d", round, state.Entry.Round)
		}
		if got := countBoxes(state.Boxes, box.StatusEliminated); got != wantEliminated[i] {
			t.Fatalf("round %d: expected %d eliminated boxes, got %d", round, wantEliminated[i], got)
		}
		if state.PendingOffer == nil {
			t.Fatalf("round %d: expected a pending offer", round)
		}
		if offered[state.PendingOffer.PlayerID] {
			t.Fatalf("round %d: player %s offered twice", round, state.PendingOffer.PlayerID)
		}
		offered[state.PendingOffer.PlayerID] = true
	}

	// Declining the last offer runs the fourth batch and opens the decision.
	state, err = h.games.DeclineOffer(t.Context(), created.Entry.ID)
	if err != nil {
		t.Fatalf("final decline failed: %v", err)
	}
	if state.Entry.Round != entry.RoundDecision {
		t.Fatalf("expected decision round %d, got %d", entry.RoundDecision, state.Entry.Round)
	}
	if state.PendingOffer != nil {
		t.Fatal("expected no pending offer in the decision round")
	}
	if got := countBoxes(state.Boxes, box.StatusEliminated); got != 8 {
		t.Fatalf("expected 8 eliminated boxes, got %d", got)
	}
	if got := countBoxes(state.Boxes, box.StatusAvailable); got != 1 {
		t.Fatalf("expected exactly one survivor box, got %d", got)
	}
	if got := countBoxes(state.Boxes, box.StatusSelected); got != 1 {
		t.Fatalf("expected the selected box to remain, got %d", got)
	}
}

func TestAcceptOffer(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	selected, err := h.games.SelectBox(t.Context(), created.Entry.ID, 1)
	if err != nil {
		t.Fatalf("select box failed: %v", err)
	}
	offeredPlayer := selected.PendingOffer.PlayerID

	state, err := h.games.AcceptOffer(t.Context(), created.Entry.ID)
	if err != nil {
		t.Fatalf("accept offer failed: %v", err)
	}
	if state.Entry.Status != entry.StatusFinished {
		t.Fatalf("expected finished, got %s", state.Entry.Status)
	}
	if state.Entry.FinalPlayerID != offeredPlayer {
		t.Fatalf("expected final player %s, got %s", offeredPlayer, state.Entry.FinalPlayerID)
	}
	if state.FinalPlayer == nil || state.FinalPlayer.PlayerID != offeredPlayer {
		t.Fatalf("expected final player snapshot for %s, got %v", offeredPlayer, state.FinalPlayer)
	}
	if got := countBoxes(state.Boxes, box.StatusEliminated); got != 9 {
		t.Fatalf("expected all non-selected boxes eliminated, got %d", got)
	}
	if got := countBoxes(state.Boxes, box.StatusSelected); got != 1 {
		t.Fatalf("expected the selected box to remain, got %d", got)
	}

	// The read side resolves the same final player from the event log.
	view, err := h.entries.GetEntry(t.Context(), created.Entry.ID)
	if err != nil {
		t.Fatalf("get entry failed: %v", err)
	}
	if view.FinalPlayer == nil || view.FinalPlayer.PlayerID != offeredPlayer {
		t.Fatalf("expected final player %s from log, got %v", offeredPlayer, view.FinalPlayer)
	}
}

func TestAcceptOffer_NoPending(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	if _, err := h.games.AcceptOffer(t.Context(), created.Entry.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict before any offer exists, got %v", err)
	}
}

func TestKeep(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	var selectedPlayer string
	for _, b := range created.Boxes {
		if b.BoxNumber == 1 {
			selectedPlayer = b.PlayerID
		}
	}

	h.advanceToDecision(t, created.Entry.ID)
	state, err := h.games.Keep(t.Context(), created.Entry.ID)
	if err != nil {
		t.Fatalf("keep failed: %v", err)
	}

	if state.Entry.Status != entry.StatusFinished {
		t.Fatalf("expected finished, got %s", state.Entry.Status)
	}
	if state.Entry.FinalPlayerID != selectedPlayer {
		t.Fatalf("expected to finish with box 1 player %s, got %s", selectedPlayer, state.Entry.FinalPlayerID)
	}
	if got := countBoxes(state.Boxes, box.StatusEliminated); got != 9 {
		t.Fatalf("expected the survivor to be eliminated, got %d eliminated", got)
	}
	if got := countBoxes(state.Boxes, box.StatusSelected); got != 1 {
		t.Fatalf("expected the selected box to remain, got %d", got)
	}
}

func TestSwap(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	decision := h.advanceToDecision(t, created.Entry.ID)
	var survivor box.Audit
	for _, b := range decision.Boxes {
		if b.Status == box.StatusAvailable {
			survivor = b
		}
	}
	if survivor.BoxNumber == 0 {
		t.Fatal("no survivor box in the decision round")
	}

	state, err := h.games.Swap(t.Context(), created.Entry.ID)
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}

	if state.Entry.FinalPlayerID != survivor.PlayerID {
		t.Fatalf("expected to finish with survivor %s, got %s", survivor.PlayerID, state.Entry.FinalPlayerID)
	}
	if state.Entry.SelectedBox == nil || *state.Entry.SelectedBox != survivor.BoxNumber {
		t.Fatalf("expected selected box to move to %d, got %v", survivor.BoxNumber, state.Entry.SelectedBox)
	}
	for _, b := range state.Boxes {
		switch b.BoxNumber {
		case 1:
			if b.Status != box.StatusSwapped {
				t.Fatalf("expected box 1 swapped out, got %s", b.Status)
			}
		case survivor.BoxNumber:
			if b.Status != box.StatusSelected {
				t.Fatalf("expected box %d selected after swap, got %s", b.BoxNumber, b.Status)
			}
		default:
			if b.Status != box.StatusEliminated {
				t.Fatalf("expected box %d eliminated, got %s", b.BoxNumber, b.Status)
			}
		}
	}
}

func TestKeep_BeforeDecisionRound(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	if _, err := h.games.SelectBox(t.Context(), created.Entry.ID, 1); err != nil {
		t.Fatalf("select box failed: %v", err)
	}
	if _, err := h.games.Keep(t.Context(), created.Entry.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict keeping in round 1, got %v", err)
	}
	if _, err := h.games.Swap(t.Context(), created.Entry.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict swapping in round 1, got %v", err)
	}
}

func TestGameMoves_AfterFinish(t *testing.T) {
	h := newGameHarness(t, 42)
	created := h.createQBEntry(t, "team-1")

	if _, err := h.games.SelectBox(t.Context(), created.Entry.ID, 1); err != nil {
		t.Fatalf("select box failed: %v", err)
	}
	if _, err := h.games.AcceptOffer(t.Context(), created.Entry.ID); err != nil {
		t.Fatalf("accept offer failed: %v", err)
	}

	if _, err := h.games.DeclineOffer(t.Context(), created.Entry.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict declining on a finished entry, got %v", err)
	}
	if _, err := h.entries.ResetEntry(t.Context(), created.Entry.ID); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict resetting a finished entry, got %v", err)
	}
}
