package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gridplay/boxgame/internal/domain/offer"
)

type OfferRepository struct {
	store *Store
}

func (r *OfferRepository) Create(_ context.Context, item offer.Offer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.offers[item.ID]; exists {
		return fmt.Errorf("offer %s already exists", item.ID)
	}
	for _, existing := range r.store.offers {
		if existing.TeamEntryID == item.TeamEntryID && existing.Status == offer.StatusPending {
			return fmt.Errorf("entry %s already has a pending offer", item.TeamEntryID)
		}
	}

	r.store.offers[item.ID] = cloneOffer(item)
	return nil
}

func (r *OfferRepository) GetPending(_ context.Context, teamEntryID string) (offer.Offer, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range r.store.offers {
		if item.TeamEntryID == teamEntryID && item.Status == offer.StatusPending {
			return cloneOffer(item), true, nil
		}
	}

	return offer.Offer{}, false, nil
}

func (r *OfferRepository) Resolve(_ context.Context, offerID string, status offer.Status, resolvedAt time.Time) error {
	if status != offer.StatusAccepted && status != offer.StatusRejected {
		return fmt.Errorf("offer resolution must be terminal, got %s", status)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.offers[offerID]
	if !ok {
		return fmt.Errorf("offer %s not found", offerID)
	}
	if item.Status != offer.StatusPending {
		return fmt.Errorf("offer %s is already %s", offerID, item.Status)
	}

	item.Status = status
	item.ResolvedAt = &resolvedAt
	r.store.offers[offerID] = item
	return nil
}

func (r *OfferRepository) ListOfferedPlayerIDs(_ context.Context, teamEntryID string, resetNumber int) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	type offered struct {
		playerID  string
		createdAt time.Time
	}
	rows := make([]offered, 0, 4)
	for _, item := range r.store.offers {
		if item.TeamEntryID == teamEntryID && item.ResetNumber == resetNumber {
			rows = append(rows, offered{playerID: item.PlayerID, createdAt: item.CreatedAt})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].createdAt.Before(rows[j].createdAt) })

	playerIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		playerIDs = append(playerIDs, row.playerID)
	}

	return playerIDs, nil
}

func cloneOffer(item offer.Offer) offer.Offer {
	copied := item
	if item.ResolvedAt != nil {
		t := *item.ResolvedAt
		copied.ResolvedAt = &t
	}
	return copied
}
