package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridplay/boxgame/internal/domain/offer"
)

type OfferRepository struct {
	q sqlx.ExtContext
}

type offerRow struct {
	PublicID        string       `db:"public_id"`
	TeamEntryID     string       `db:"team_entry_public_id"`
	ResetNumber     int          `db:"reset_number"`
	Round           int          `db:"round"`
	Value           float64      `db:"value"`
	PlayerID        string       `db:"player_id"`
	PlayerName      string       `db:"player_name"`
	InjuryStatus    string       `db:"injury_status"`
	ProjectedPoints float64      `db:"projected_points"`
	Status          string       `db:"status"`
	CreatedAt       time.Time    `db:"created_at"`
	ResolvedAt      sql.NullTime `db:"resolved_at"`
}

func (r *OfferRepository) Create(ctx context.Context, item offer.Offer) error {
	const query = `
INSERT INTO offers (
    public_id, team_entry_public_id, reset_number, round, value, player_id,
    player_name, injury_status, projected_points, status, created_at
) VALUES (
    :public_id, :team_entry_public_id, :reset_number, :round, :value, :player_id,
    :player_name, :injury_status, :projected_points, :status, :created_at
)`

	args := map[string]any{
		"public_id":            item.ID,
		"team_entry_public_id": item.TeamEntryID,
		"reset_number":         item.ResetNumber,
		"round":                item.Round,
		"value":                item.Value,
		"player_id":            item.PlayerID,
		"player_name":          item.PlayerName,
		"injury_status":        item.InjuryStatus,
		"projected_points":     item.ProjectedPoints,
		"status":               string(item.Status),
		"created_at":           item.CreatedAt,
	}
	boundSQL, boundArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind create offer query: %w", err)
	}
	boundSQL = r.q.Rebind(boundSQL)

	if _, err := r.q.ExecContext(ctx, boundSQL, boundArgs...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("entry %s already has a pending offer", item.TeamEntryID)
		}
		return fmt.Errorf("create offer: %w", err)
	}

	return nil
}

func (r *OfferRepository) GetPending(ctx context.Context, teamEntryID string) (offer.Offer, bool, error) {
	const query = `
SELECT public_id, team_entry_public_id, reset_number, round, value, player_id,
       player_name, injury_status, projected_points, status, created_at, resolved_at
FROM offers
WHERE team_entry_public_id = $1
  AND status = 'pending'`

	var row offerRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, teamEntryID); err != nil {
		if isNotFound(err) {
			return offer.Offer{}, false, nil
		}
		return offer.Offer{}, false, fmt.Errorf("get pending offer: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *OfferRepository) Resolve(ctx context.Context, offerID string, status offer.Status, resolvedAt time.Time) error {
	if status != offer.StatusAccepted && status != offer.StatusRejected {
		return fmt.Errorf("offer resolution must be terminal, got %s", status)
	}

	const query = `
UPDATE offers
SET status = $1,
    resolved_at = $2
WHERE public_id = $3
  AND status = 'pending'`

	result, err := r.q.ExecContext(ctx, query, string(status), resolvedAt, offerID)
	if err != nil {
		return fmt.Errorf("resolve offer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve offer rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("offer %s is not pending or does not exist", offerID)
	}

	return nil
}

func (r *OfferRepository) ListOfferedPlayerIDs(ctx context.Context, teamEntryID string, resetNumber int) ([]string, error) {
	const query = `
SELECT player_id
FROM offers
WHERE team_entry_public_id = $1
  AND reset_number = $2
ORDER BY created_at, id`

	var playerIDs []string
	if err := sqlx.SelectContext(ctx, r.q, &playerIDs, query, teamEntryID, resetNumber); err != nil {
		return nil, fmt.Errorf("list offered players: %w", err)
	}

	return playerIDs, nil
}

func (row offerRow) toDomain() offer.Offer {
	item := offer.Offer{
		ID:              row.PublicID,
		TeamEntryID:     row.TeamEntryID,
		ResetNumber:     row.ResetNumber,
		Round:           row.Round,
		Value:           row.Value,
		PlayerID:        row.PlayerID,
		PlayerName:      row.PlayerName,
		InjuryStatus:    row.InjuryStatus,
		ProjectedPoints: row.ProjectedPoints,
		Status:          offer.Status(row.Status),
		CreatedAt:       row.CreatedAt,
	}
	if row.ResolvedAt.Valid {
		t := row.ResolvedAt.Time
		item.ResolvedAt = &t
	}
	return item
}
