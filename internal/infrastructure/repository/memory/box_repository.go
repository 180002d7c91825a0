package memory

import (
	"context"
	"fmt"

	"github.com/gridplay/boxgame/internal/domain/box"
)

type BoxRepository struct {
	store *Store
}

func (r *BoxRepository) InsertGeneration(_ context.Context, items []box.Audit) error {
	if len(items) == 0 {
		return fmt.Errorf("generation cannot be empty")
	}

	key := generationKey(items[0].TeamEntryID, items[0].ResetNumber)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.boxes[key]; exists {
		return fmt.Errorf("generation %s already exists", key)
	}

	seen := make(map[int]struct{}, len(items))
	copied := make([]box.Audit, 0, len(items))
	for _, item := range items {
		if generationKey(item.TeamEntryID, item.ResetNumber) != key {
			return fmt.Errorf("generation rows must share one entry and reset number")
		}
		if _, dup := seen[item.BoxNumber]; dup {
			return fmt.Errorf("duplicate box number %d", item.BoxNumber)
		}
		seen[item.BoxNumber] = struct{}{}
		copied = append(copied, item)
	}

	r.store.boxes[key] = copied
	return nil
}

func (r *BoxRepository) ListGeneration(_ context.Context, teamEntryID string, resetNumber int) ([]box.Audit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := r.store.boxes[generationKey(teamEntryID, resetNumber)]
	return append([]box.Audit(nil), items...), nil
}

func (r *BoxRepository) GetBox(_ context.Context, teamEntryID string, resetNumber, boxNumber int) (box.Audit, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range r.store.boxes[generationKey(teamEntryID, resetNumber)] {
		if item.BoxNumber == boxNumber {
			return item, true, nil
		}
	}

	return box.Audit{}, false, nil
}

func (r *BoxRepository) UpdateStatus(_ context.Context, teamEntryID string, resetNumber, boxNumber int, from, to box.Status) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := generationKey(teamEntryID, resetNumber)
	items := r.store.boxes[key]
	for i, item := range items {
		if item.BoxNumber != boxNumber {
			continue
		}
		if item.Status != from {
			return fmt.Errorf("box %d is %s, expected %s", boxNumber, item.Status, from)
		}
		if !box.CanTransition(from, to) {
			return fmt.Errorf("box %d cannot move %s -> %s", boxNumber, from, to)
		}
		items[i].Status = to
		return nil
	}

	return fmt.Errorf("box %d not found in generation %s", boxNumber, key)
}
