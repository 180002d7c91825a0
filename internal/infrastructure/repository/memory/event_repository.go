package memory

import (
	"context"
	"fmt"

	"github.com/gridplay/boxgame/internal/domain/gameevent"
)

type EventRepository struct {
	store *Store
}

// Append assigns the next per-entry sequence number and stores the row. Rows
// are never touched again.
func (r *EventRepository) Append(_ context.Context, item gameevent.Event) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	log := r.store.events[item.TeamEntryID]
	item.Seq = int64(len(log) + 1)
	r.store.events[item.TeamEntryID] = append(log, cloneEvent(item))
	return nil
}

func (r *EventRepository) ListByEntry(_ context.Context, teamEntryID string) ([]gameevent.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	log := r.store.events[teamEntryID]
	out := make([]gameevent.Event, 0, len(log))
	for _, item := range log {
		out = append(out, cloneEvent(item))
	}

	return out, nil
}

func cloneEvent(item gameevent.Event) gameevent.Event {
	copied := item
	if item.Round != nil {
		n := *item.Round
		copied.Round = &n
	}
	if item.Payload.Player != nil {
		p := *item.Payload.Player
		copied.Payload.Player = &p
	}
	copied.Payload.Boxes = append([]gameevent.BoxSnapshot(nil), item.Payload.Boxes...)
	return copied
}
