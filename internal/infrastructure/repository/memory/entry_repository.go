package memory

import (
	"context"
	"fmt"

	"github.com/gridplay/boxgame/internal/domain/entry"
)

type EntryRepository struct {
	store *Store
}

func (r *EntryRepository) GetByID(_ context.Context, id string) (entry.TeamEntry, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.entries[id]
	if !ok {
		return entry.TeamEntry{}, false, nil
	}

	return cloneEntry(item), true, nil
}

func (r *EntryRepository) GetActiveByTeamPosition(_ context.Context, teamID string, position entry.Position) (entry.TeamEntry, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, item := range r.store.entries {
		if item.TeamID == teamID && item.Position == position && item.Active() {
			return cloneEntry(item), true, nil
		}
	}

	return entry.TeamEntry{}, false, nil
}

func (r *EntryRepository) Create(_ context.Context, item entry.TeamEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.entries[item.ID]; exists {
		return fmt.Errorf("entry %s already exists", item.ID)
	}
	for _, existing := range r.store.entries {
		if existing.TeamID == item.TeamID && existing.Position == item.Position && existing.Active() {
			return fmt.Errorf("team %s already has an active %s entry", item.TeamID, item.Position)
		}
	}

	r.store.entries[item.ID] = cloneEntry(item)
	return nil
}

func (r *EntryRepository) Update(_ context.Context, item entry.TeamEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.entries[item.ID]
	if !ok {
		return fmt.Errorf("entry %s not found", item.ID)
	}
	if stored.Version != item.Version {
		return fmt.Errorf("entry %s version %d is stale, stored %d", item.ID, item.Version, stored.Version)
	}

	updated := cloneEntry(item)
	updated.Version++
	r.store.entries[item.ID] = updated
	return nil
}

func cloneEntry(item entry.TeamEntry) entry.TeamEntry {
	copied := item
	if item.SelectedBox != nil {
		n := *item.SelectedBox
		copied.SelectedBox = &n
	}
	return copied
}
