package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/gridplay/boxgame/internal/domain/gameevent"
)

type EventRepository struct {
	q sqlx.ExtContext
}

type eventRow struct {
	Seq         int64         `db:"seq"`
	TeamEntryID string        `db:"team_entry_public_id"`
	EventType   string        `db:"event_type"`
	ResetNumber int           `db:"reset_number"`
	Round       sql.NullInt64 `db:"round"`
	Payload     []byte        `db:"payload"`
	CreatedAt   time.Time     `db:"created_at"`
}

// Append writes one log row with the next per-entry sequence number. The
// subselect is safe because every writer holds the entry lock.
func (r *EventRepository) Append(ctx context.Context, item gameevent.Event) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	payload, err := sonic.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	round := sql.NullInt64{}
	if item.Round != nil {
		round = sql.NullInt64{Int64: int64(*item.Round), Valid: true}
	}

	const query = `
INSERT INTO game_events (team_entry_public_id, seq, event_type, reset_number, round, payload, created_at)
SELECT $1,
       COALESCE(MAX(seq), 0) + 1,
       $2, $3, $4, $5, $6
FROM game_events
WHERE team_entry_public_id = $1`

	if _, err := r.q.ExecContext(ctx, query,
		item.TeamEntryID, string(item.Type), item.ResetNumber, round, payload, item.CreatedAt,
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	return nil
}

func (r *EventRepository) ListByEntry(ctx context.Context, teamEntryID string) ([]gameevent.Event, error) {
	const query = `
SELECT seq, team_entry_public_id, event_type, reset_number, round, payload, created_at
FROM game_events
WHERE team_entry_public_id = $1
ORDER BY seq`

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, teamEntryID); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]gameevent.Event, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, item)
	}

	return events, nil
}

func (row eventRow) toDomain() (gameevent.Event, error) {
	item := gameevent.Event{
		Seq:         row.Seq,
		TeamEntryID: row.TeamEntryID,
		Type:        gameevent.Type(row.EventType),
		ResetNumber: row.ResetNumber,
		CreatedAt:   row.CreatedAt,
	}
	if row.Round.Valid {
		n := int(row.Round.Int64)
		item.Round = &n
	}
	if len(row.Payload) > 0 {
		if err := sonic.Unmarshal(row.Payload, &item.Payload); err != nil {
			return gameevent.Event{}, fmt.Errorf("decode event %d payload: %w", row.Seq, err)
		}
	}

	return item, nil
}
