package entry

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a team entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Position represents roster position categories eligible for the box game.
type Position string

const (
	PositionQuarterback Position = "QB"
	PositionRunningBack Position = "RB"
	PositionWideReceiver Position = "WR"
	PositionTightEnd    Position = "TE"
	PositionKicker      Position = "K"
	PositionDefense     Position = "DST"
)

var AllPositions = map[Position]struct{}{
	PositionQuarterback:  {},
	PositionRunningBack:  {},
	PositionWideReceiver: {},
	PositionTightEnd:     {},
	PositionKicker:       {},
	PositionDefense:      {},
}

// Round boundaries of the elimination cycle. Round 0 means no box has been
// selected yet; rounds 1..4 run eliminations; round 5 is the terminal
// keep-or-swap decision.
const (
	RoundUnselected = 0
	RoundFirst      = 1
	RoundLast       = 4
	RoundDecision   = 5
)

// TeamEntry is one box game instance scoped to a team and a roster position.
type TeamEntry struct {
	ID               string
	TeamID           string
	Position         Position
	Week             int
	LeagueSettingsID string
	PoolSize         int
	ResetCount       int
	SelectedBox      *int
	Round            int
	Status           Status
	FinalPlayerID    string
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e TeamEntry) ValidateBasic() error {
	if e.ID == "" {
		return fmt.Errorf("entry id is required")
	}
	if e.TeamID == "" {
		return fmt.Errorf("team id is required")
	}
	if _, ok := AllPositions[e.Position]; !ok {
		return fmt.Errorf("invalid position: %s", e.Position)
	}
	if e.Week <= 0 {
		return fmt.Errorf("week must be greater than zero")
	}
	if e.LeagueSettingsID == "" {
		return fmt.Errorf("league settings id is required")
	}
	if e.PoolSize <= 0 {
		return fmt.Errorf("pool size must be greater than zero")
	}

	return nil
}

// Active reports whether the entry still occupies the one-live-game slot for
// its (team, position) pair.
func (e TeamEntry) Active() bool {
	return e.Status != StatusFinished
}
