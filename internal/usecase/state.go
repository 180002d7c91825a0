package usecase

import (
	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	"github.com/gridplay/boxgame/internal/domain/offer"
)

// EntryState is the full current-game view returned by every mutating
// operation. Boxes covers the current generation only; concealment of
// player identity for unopened boxes happens at the transport layer.
type EntryState struct {
	Entry        entry.TeamEntry
	Boxes        []box.Audit
	PendingOffer *offer.Offer
	FinalPlayer  *gameevent.PlayerSnapshot
}

func playerSnapshot(item box.Audit) gameevent.PlayerSnapshot {
	return gameevent.PlayerSnapshot{
		PlayerID:        item.PlayerID,
		PlayerName:      item.PlayerName,
		ProjectedPoints: item.ProjectedPoints,
		InjuryStatus:    item.InjuryStatus,
	}
}

func offerSnapshot(item offer.Offer) gameevent.PlayerSnapshot {
	return gameevent.PlayerSnapshot{
		PlayerID:        item.PlayerID,
		PlayerName:      item.PlayerName,
		ProjectedPoints: item.ProjectedPoints,
		InjuryStatus:    item.InjuryStatus,
	}
}
