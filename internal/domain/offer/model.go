package offer

import (
	"fmt"
	"time"
)

// Status represents the resolution state of a banker offer. Resolution is
// terminal; a later offer is always a new row.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Offer is one banker proposal for an entry: a buyout value plus the
// leftover player whose projection sits closest to it.
type Offer struct {
	ID              string
	TeamEntryID     string
	ResetNumber     int
	Round           int
	Value           float64
	PlayerID        string
	PlayerName      string
	InjuryStatus    string
	ProjectedPoints float64
	Status          Status
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

func (o Offer) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("offer id is required")
	}
	if o.TeamEntryID == "" {
		return fmt.Errorf("team entry id is required")
	}
	if o.Round <= 0 {
		return fmt.Errorf("offer round must be greater than zero")
	}
	if o.Value < 0 {
		return fmt.Errorf("offer value cannot be negative")
	}
	if o.PlayerID == "" {
		return fmt.Errorf("offer player id is required")
	}

	return nil
}
