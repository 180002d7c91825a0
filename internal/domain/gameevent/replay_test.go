package gameevent

import (
	"strings"
	"testing"
	"time"

	"github.com/gridplay/boxgame/internal/domain/box"
)

const replayEntryID = "ent_replay"

type logBuilder struct {
	seq    int64
	events []Event
}

func (b *logBuilder) add(t Type, round int, payload Payload) *logBuilder {
	b.seq++
	ev := Event{
		Seq:         b.seq,
		TeamEntryID: replayEntryID,
		Type:        t,
		Payload:     payload,
		CreatedAt:   time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC),
	}
	if round > 0 {
		r := round
		ev.Round = &r
	}
	b.events = append(b.events, ev)
	return b
}

func replayPlayer(n int) PlayerSnapshot {
	return PlayerSnapshot{
		PlayerID:        "p" + string(rune('0'+n)),
		PlayerName:      "Player " + string(rune('0'+n)),
		ProjectedPoints: float64(10 * n),
	}
}

func fourBoxGeneration() Payload {
	boxes := make([]BoxSnapshot, 0, 4)
	for i := 1; i <= 4; i++ {
		boxes = append(boxes, BoxSnapshot{BoxNumber: i, Player: replayPlayer(i)})
	}
	return BoxesGeneratedPayload(4, boxes)
}

func TestReplay_AcceptPath(t *testing.T) {
	offered := PlayerSnapshot{PlayerID: "p-offer", PlayerName: "Offered Player", ProjectedPoints: 21.5}
	b := &logBuilder{}
	b.add(TypeStart, 0, StartPayload("QB", 5)).
		add(TypeBoxesGenerated, 0, fourBoxGeneration()).
		add(TypeBoxSelected, 1, BoxSelectedPayload(1)).
		add(TypeBoxEliminated, 1, BoxEliminatedPayload(2, replayPlayer(2))).
		add(TypeOfferMade, 1, OfferPayload("off_1", 21.3, offered)).
		add(TypeOfferAccepted, 1, OfferPayload("off_1", 21.3, offered)).
		add(TypeBoxEliminated, 1, BoxEliminatedPayload(3, replayPlayer(3))).
		add(TypeBoxEliminated, 1, BoxEliminatedPayload(4, replayPlayer(4))).
		add(TypeEnd, 1, EndPayload(FinishAccept, 0, offered))

	state, err := Replay(b.events)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !state.Finished || state.FinishSource != FinishAccept {
		t.Fatalf("expected accept finish, got finished=%t source=%s", state.Finished, state.FinishSource)
	}
	if state.FinalPlayer == nil || state.FinalPlayer.PlayerID != "p-offer" {
		t.Fatalf("expected final player p-offer, got %v", state.FinalPlayer)
	}
	if state.SelectedBox == nil || *state.SelectedBox != 1 {
		t.Fatalf("expected selected box 1, got %v", state.SelectedBox)
	}
	if state.PendingOffer != nil {
		t.Fatal("expected no pending offer after accept")
	}
	if state.Boxes[1].Status != box.StatusSelected {
		t.Fatalf("expected box 1 selected, got %s", state.Boxes[1].Status)
	}
	for _, n := range []int{2, 3, 4} {
		if state.Boxes[n].Status != box.StatusEliminated {
			t.Fatalf("expected box %d eliminated, got %s", n, state.Boxes[n].Status)
		}
	}
}

func TestReplay_DecisionRoundHeuristic(t *testing.T) {
	b := &logBuilder{}
	b.add(TypeStart, 0, StartPayload("QB", 5)).
		add(TypeBoxesGenerated, 0, fourBoxGeneration()).
		add(TypeBoxSelected, 1, BoxSelectedPayload(1)).
		add(TypeBoxEliminated, 1, BoxEliminatedPayload(2, replayPlayer(2))).
		add(TypeBoxEliminated, 2, BoxEliminatedPayload(3, replayPlayer(3)))

	state, err := Replay(b.events)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	// Two concealed boxes remain with no pending offer and no end event, so
	// the game must be sitting in the keep-or-swap round.
	if state.Round != 5 {
		t.Fatalf("expected round 5, got %d", state.Round)
	}
	if state.Finished {
		t.Fatal("expected an unfinished entry")
	}
}

func TestReplay_SwapEnd(t *testing.T) {
	b := &logBuilder{}
	b.add(TypeStart, 0, StartPayload("QB", 5)).
		add(TypeBoxesGenerated, 0, fourBoxGeneration()).
		add(TypeBoxSelected, 1, BoxSelectedPayload(1)).
		add(TypeBoxEliminated, 1, BoxEliminatedPayload(2, replayPlayer(2))).
		add(TypeBoxEliminated, 2, BoxEliminatedPayload(3, replayPlayer(3))).
		add(TypeEnd, 5, EndPayload(FinishSwap, 4, replayPlayer(4)))

	state, err := Replay(b.events)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if state.SelectedBox == nil || *state.SelectedBox != 4 {
		t.Fatalf("expected selection to move to box 4, got %v", state.SelectedBox)
	}
	if state.Boxes[1].Status != box.StatusSwapped {
		t.Fatalf("expected box 1 swapped, got %s", state.Boxes[1].Status)
	}
	if state.Boxes[4].Status != box.StatusSelected {
		t.Fatalf("expected box 4 selected, got %s", state.Boxes[4].Status)
	}
	if state.Round != 5 {
		t.Fatalf("expected round 5, got %d", state.Round)
	}
	if state.FinalPlayer == nil || state.FinalPlayer.PlayerID != replayPlayer(4).PlayerID {
		t.Fatalf("expected box 4 player as final, got %v", state.FinalPlayer)
	}
}

func TestReplay_ResetStartsFreshGeneration(t *testing.T) {
	b := &logBuilder{}
	b.add(TypeStart, 0, StartPayload("QB", 5)).
		add(TypeBoxesGenerated, 0, fourBoxGeneration())
	b.events = append(b.events, Event{
		Seq:         3,
		TeamEntryID: replayEntryID,
		Type:        TypeReset,
		ResetNumber: 1,
		Payload:     ResetPayload(4),
	})
	b.seq = 3
	b.add(TypeBoxesGenerated, 0, fourBoxGeneration())

	state, err := Replay(b.events)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if state.ResetNumber != 1 {
		t.Fatalf("expected reset number 1, got %d", state.ResetNumber)
	}
	if state.SelectedBox != nil {
		t.Fatalf("expected no selection after reset, got %v", state.SelectedBox)
	}
	if len(state.Boxes) != 4 {
		t.Fatalf("expected 4 fresh boxes, got %d", len(state.Boxes))
	}
}

func TestReplay_RejectsBrokenLogs(t *testing.T) {
	base := func() *logBuilder {
		b := &logBuilder{}
		b.add(TypeStart, 0, StartPayload("QB", 5)).
			add(TypeBoxesGenerated, 0, fourBoxGeneration())
		return b
	}

	cases := []struct {
		name    string
		events  []Event
		wantErr string
	}{
		{
			name:    "empty log",
			events:  nil,
			wantErr: "empty",
		},
		{
			name: "first event is not start",
			events: (&logBuilder{}).
				add(TypeBoxesGenerated, 0, fourBoxGeneration()).events,
			wantErr: "begin with start",
		},
		{
			name: "event after end",
			events: base().
				add(TypeBoxSelected, 1, BoxSelectedPayload(1)).
				add(TypeEnd, 1, EndPayload(FinishKeep, 1, replayPlayer(1))).
				add(TypeBoxEliminated, 1, BoxEliminatedPayload(2, replayPlayer(2))).events,
			wantErr: "after end",
		},
		{
			name: "offer while another pending",
			events: base().
				add(TypeBoxSelected, 1, BoxSelectedPayload(1)).
				add(TypeOfferMade, 1, OfferPayload("off_1", 20, replayPlayer(2))).
				add(TypeOfferMade, 1, OfferPayload("off_2", 19, replayPlayer(3))).events,
			wantErr: "another is pending",
		},
		{
			name: "eliminating an opened box",
			events: base().
				add(TypeBoxEliminated, 1, BoxEliminatedPayload(2, replayPlayer(2))).
				add(TypeBoxEliminated, 1, BoxEliminatedPayload(2, replayPlayer(2))).events,
			wantErr: "box 2",
		},
		{
			name: "selecting twice",
			events: base().
				add(TypeBoxSelected, 1, BoxSelectedPayload(1)).
				add(TypeBoxSelected, 1, BoxSelectedPayload(2)).events,
			wantErr: "selected twice",
		},
		{
			name: "accept with no offer pending",
			events: base().
				add(TypeOfferAccepted, 1, OfferPayload("off_1", 20, replayPlayer(2))).events,
			wantErr: "none pending",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Replay(tc.events)
			if err == nil {
				t.Fatal("expected replay to fail")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestReplay_RejectsUnorderedSeq(t *testing.T) {
	b := &logBuilder{}
	b.add(TypeStart, 0, StartPayload("QB", 5)).
		add(TypeBoxesGenerated, 0, fourBoxGeneration())
	b.events[1].Seq = b.events[0].Seq

	if _, err := Replay(b.events); err == nil || !strings.Contains(err.Error(), "not ordered") {
		t.Fatalf("expected ordering error, got %v", err)
	}
}

func TestReplay_RejectsMixedEntries(t *testing.T) {
	b := &logBuilder{}
	b.add(TypeStart, 0, StartPayload("QB", 5)).
		add(TypeBoxesGenerated, 0, fourBoxGeneration())
	b.events[1].TeamEntryID = "ent_other"

	if _, err := Replay(b.events); err == nil || !strings.Contains(err.Error(), "mixes entries") {
		t.Fatalf("expected mixed-entry error, got %v", err)
	}
}
