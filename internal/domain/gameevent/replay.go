package gameevent

import (
	"fmt"

	"github.com/gridplay/boxgame/internal/domain/box"
)

// BoxState is the replayed view of one box in the current generation.
type BoxState struct {
	BoxNumber int
	Player    PlayerSnapshot
	Status    box.Status
}

// OfferState is the replayed view of the unresolved banker offer.
type OfferState struct {
	OfferID string
	Round   int
	Value   float64
	Player  PlayerSnapshot
}

// State is the full current-game view reconstructed from the event log. It
// must agree with the denormalized box and offer rows at all times; any
// divergence means the audit trail is corrupted.
type State struct {
	TeamEntryID  string
	ResetNumber  int
	Round        int
	PoolSize     int
	SelectedBox  *int
	Boxes        map[int]BoxState
	PendingOffer *OfferState
	Finished     bool
	FinishSource FinishSource
	FinalPlayer  *PlayerSnapshot
}

// Replay folds an entry's event log, in append order, into its current
// state. The log is the canonical record: every box reveal arrives as its
// own box_eliminated event, so no implicit transitions are applied here.
func Replay(events []Event) (State, error) {
	state := State{Boxes: map[int]BoxState{}}
	if len(events) == 0 {
		return state, fmt.Errorf("event log is empty")
	}
	if events[0].Type != TypeStart {
		return state, fmt.Errorf("event log must begin with start, got %s", events[0].Type)
	}
	state.TeamEntryID = events[0].TeamEntryID

	lastSeq := int64(-1)
	for _, ev := range events {
		if ev.TeamEntryID != state.TeamEntryID {
			return state, fmt.Errorf("event log mixes entries: %s and %s", state.TeamEntryID, ev.TeamEntryID)
		}
		if ev.Seq <= lastSeq {
			return state, fmt.Errorf("event log is not ordered: seq %d after %d", ev.Seq, lastSeq)
		}
		lastSeq = ev.Seq

		if state.Finished {
			return state, fmt.Errorf("event %s after end", ev.Type)
		}

		if err := applyEvent(&state, ev); err != nil {
			return state, err
		}
	}

	// The round-4 elimination leaves two concealed boxes with neither an
	// offer nor an end event; that is the keep-or-swap round.
	if state.SelectedBox != nil && !state.Finished && state.PendingOffer == nil &&
		state.PoolSize > 0 && countByStatus(state.Boxes, box.StatusEliminated) == state.PoolSize-2 {
		state.Round = 5
	}

	return state, nil
}

func applyEvent(state *State, ev Event) error {
	switch ev.Type {
	case TypeStart:
		state.ResetNumber = ev.ResetNumber

	case TypeReset:
		state.ResetNumber = ev.ResetNumber
		state.Boxes = map[int]BoxState{}
		state.SelectedBox = nil
		state.Round = 0

	case TypeBoxesGenerated:
		if len(ev.Payload.Boxes) == 0 {
			return fmt.Errorf("boxes_generated event carries no boxes")
		}
		state.PoolSize = ev.Payload.PoolSize
		state.Boxes = make(map[int]BoxState, len(ev.Payload.Boxes))
		for _, snap := range ev.Payload.Boxes {
			if _, exists := state.Boxes[snap.BoxNumber]; exists {
				return fmt.Errorf("duplicate box number %d in generation", snap.BoxNumber)
			}
			state.Boxes[snap.BoxNumber] = BoxState{
				BoxNumber: snap.BoxNumber,
				Player:    snap.Player,
				Status:    box.StatusAvailable,
			}
		}

	case TypeBoxSelected:
		if state.SelectedBox != nil {
			return fmt.Errorf("box selected twice")
		}
		if err := moveBox(state, ev.Payload.BoxNumber, box.StatusAvailable, box.StatusSelected); err != nil {
			return err
		}
		n := ev.Payload.BoxNumber
		state.SelectedBox = &n
		state.Round = 1

	case TypeBoxEliminated:
		if err := moveBox(state, ev.Payload.BoxNumber, box.StatusAvailable, box.StatusEliminated); err != nil {
			return err
		}

	case TypeOfferMade:
		if state.PendingOffer != nil {
			return fmt.Errorf("offer made while another is pending")
		}
		if ev.Payload.Player == nil {
			return fmt.Errorf("offer_made event carries no player")
		}
		round := 0
		if ev.Round != nil {
			round = *ev.Round
		}
		state.PendingOffer = &OfferState{
			OfferID: ev.Payload.OfferID,
			Round:   round,
			Value:   ev.Payload.OfferValue,
			Player:  *ev.Payload.Player,
		}
		state.Round = round

	case TypeOfferAccepted:
		if state.PendingOffer == nil {
			return fmt.Errorf("offer accepted with none pending")
		}
		state.PendingOffer = nil

	case TypeOfferRejected:
		if state.PendingOffer == nil {
			return fmt.Errorf("offer rejected with none pending")
		}
		state.Round = state.PendingOffer.Round + 1
		state.PendingOffer = nil

	case TypeEnd:
		if ev.Payload.Player == nil {
			return fmt.Errorf("end event carries no final player")
		}
		if ev.Payload.FinishSource == FinishSwap {
			if state.SelectedBox == nil {
				return fmt.Errorf("swap finish without a selected box")
			}
			if err := moveBox(state, *state.SelectedBox, box.StatusSelected, box.StatusSwapped); err != nil {
				return err
			}
			if err := moveBox(state, ev.Payload.FinalBox, box.StatusAvailable, box.StatusSelected); err != nil {
				return err
			}
			n := ev.Payload.FinalBox
			state.SelectedBox = &n
		}
		state.Finished = true
		state.FinishSource = ev.Payload.FinishSource
		state.FinalPlayer = ev.Payload.Player
		if ev.Round != nil {
			state.Round = *ev.Round
		}

	default:
		return fmt.Errorf("unknown event type: %s", ev.Type)
	}

	return nil
}

func moveBox(state *State, boxNumber int, from, to box.Status) error {
	item, ok := state.Boxes[boxNumber]
	if !ok {
		return fmt.Errorf("box %d not in current generation", boxNumber)
	}
	if item.Status != from {
		return fmt.Errorf("box %d is %s, expected %s", boxNumber, item.Status, from)
	}
	if !box.CanTransition(from, to) {
		return fmt.Errorf("box %d cannot move %s -> %s", boxNumber, from, to)
	}
	item.Status = to
	state.Boxes[boxNumber] = item
	return nil
}

func countByStatus(boxes map[int]BoxState, status box.Status) int {
	count := 0
	for _, item := range boxes {
		if item.Status == status {
			count++
		}
	}
	return count
}
