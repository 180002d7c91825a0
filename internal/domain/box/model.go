package box

import (
	"fmt"
	"time"
)

// Status represents the visible state of one numbered box within a
// generation. Transitions only move forward; history rows are never
// rewritten once they reach a terminal status.
type Status string

const (
	StatusAvailable  Status = "available"
	StatusSelected   Status = "selected"
	StatusEliminated Status = "eliminated"
	StatusReset      Status = "reset"
	StatusSwapped    Status = "swapped"
)

// forward transition table: from -> allowed targets.
var transitions = map[Status]map[Status]struct{}{
	StatusAvailable: {
		StatusSelected:   {},
		StatusEliminated: {},
		StatusReset:      {},
	},
	StatusSelected: {
		StatusSwapped: {},
	},
}

// CanTransition reports whether a box row may move from one status to
// another within the same generation.
func CanTransition(from, to Status) bool {
	targets, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// Audit is one immutable row per box per reset generation. Only rows whose
// ResetNumber equals the entry's current ResetCount describe the live game;
// earlier generations are retained as history.
type Audit struct {
	TeamEntryID     string
	ResetNumber     int
	BoxNumber       int
	PlayerID        string
	PlayerName      string
	ProjectedPoints float64
	InjuryStatus    string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a Audit) Validate() error {
	if a.TeamEntryID == "" {
		return fmt.Errorf("team entry id is required")
	}
	if a.ResetNumber < 0 {
		return fmt.Errorf("reset number cannot be negative")
	}
	if a.BoxNumber <= 0 {
		return fmt.Errorf("box number must be greater than zero")
	}
	if a.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if a.PlayerName == "" {
		return fmt.Errorf("player name is required")
	}

	return nil
}
