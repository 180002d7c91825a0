package gameevent

import (
	"fmt"
	"time"
)

// Type enumerates every event the engine appends to the audit log.
type Type string

const (
	TypeStart          Type = "start"
	TypeReset          Type = "reset"
	TypeBoxesGenerated Type = "boxes_generated"
	TypeBoxSelected    Type = "box_selected"
	TypeBoxEliminated  Type = "box_eliminated"
	TypeOfferMade      Type = "offer_made"
	TypeOfferAccepted  Type = "offer_accepted"
	TypeOfferRejected  Type = "offer_rejected"
	TypeEnd            Type = "end"
)

var AllTypes = map[Type]struct{}{
	TypeStart:          {},
	TypeReset:          {},
	TypeBoxesGenerated: {},
	TypeBoxSelected:    {},
	TypeBoxEliminated:  {},
	TypeOfferMade:      {},
	TypeOfferAccepted:  {},
	TypeOfferRejected:  {},
	TypeEnd:            {},
}

// FinishSource names the decision path that terminated an entry.
type FinishSource string

const (
	FinishAccept FinishSource = "accept"
	FinishKeep   FinishSource = "keep"
	FinishSwap   FinishSource = "swap"
)

// PlayerSnapshot freezes the identity of a concealed or revealed player at
// the moment an event was written.
type PlayerSnapshot struct {
	PlayerID        string  `json:"player_id"`
	PlayerName      string  `json:"player_name"`
	ProjectedPoints float64 `json:"projected_points"`
	InjuryStatus    string  `json:"injury_status,omitempty"`
}

// BoxSnapshot freezes one box assignment inside a boxes_generated payload.
type BoxSnapshot struct {
	BoxNumber int            `json:"box_number"`
	Player    PlayerSnapshot `json:"player"`
}

// Payload carries the event-specific data. Constructors below are the only
// supported way to build one, so each event type carries exactly the fields
// that are meaningful for it.
type Payload struct {
	Position     string          `json:"position,omitempty"`
	Week         int             `json:"week,omitempty"`
	PoolSize     int             `json:"pool_size,omitempty"`
	Boxes        []BoxSnapshot   `json:"boxes,omitempty"`
	BoxNumber    int             `json:"box_number,omitempty"`
	OfferID      string          `json:"offer_id,omitempty"`
	OfferValue   float64         `json:"offer_value,omitempty"`
	Player       *PlayerSnapshot `json:"player,omitempty"`
	FinishSource FinishSource    `json:"finish_source,omitempty"`
	FinalBox     int             `json:"final_box,omitempty"`
}

// Event is one append-only audit row, totally ordered per entry by Seq.
type Event struct {
	Seq         int64
	TeamEntryID string
	Type        Type
	ResetNumber int
	Round       *int
	Payload     Payload
	CreatedAt   time.Time
}

func (e Event) Validate() error {
	if e.TeamEntryID == "" {
		return fmt.Errorf("team entry id is required")
	}
	if _, ok := AllTypes[e.Type]; !ok {
		return fmt.Errorf("unknown event type: %s", e.Type)
	}
	if e.ResetNumber < 0 {
		return fmt.Errorf("reset number cannot be negative")
	}

	return nil
}

func StartPayload(position string, week int) Payload {
	return Payload{Position: position, Week: week}
}

func ResetPayload(poolSize int) Payload {
	return Payload{PoolSize: poolSize}
}

func BoxesGeneratedPayload(poolSize int, boxes []BoxSnapshot) Payload {
	return Payload{PoolSize: poolSize, Boxes: boxes}
}

func BoxSelectedPayload(boxNumber int) Payload {
	return Payload{BoxNumber: boxNumber}
}

func BoxEliminatedPayload(boxNumber int, revealed PlayerSnapshot) Payload {
	return Payload{BoxNumber: boxNumber, Player: &revealed}
}

func OfferPayload(offerID string, value float64, candidate PlayerSnapshot) Payload {
	return Payload{OfferID: offerID, OfferValue: value, Player: &candidate}
}

func EndPayload(source FinishSource, finalBox int, final PlayerSnapshot) Payload {
	return Payload{FinishSource: source, FinalBox: finalBox, Player: &final}
}
