package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridplay/boxgame/internal/domain/box"
)

type BoxRepository struct {
	q sqlx.ExtContext
}

type boxRow struct {
	TeamEntryID     string    `db:"team_entry_public_id"`
	ResetNumber     int       `db:"reset_number"`
	BoxNumber       int       `db:"box_number"`
	PlayerID        string    `db:"player_id"`
	PlayerName      string    `db:"player_name"`
	ProjectedPoints float64   `db:"projected_points"`
	InjuryStatus    string    `db:"injury_status"`
	Status          string    `db:"box_status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *BoxRepository) InsertGeneration(ctx context.Context, items []box.Audit) error {
	if len(items) == 0 {
		return fmt.Errorf("generation cannot be empty")
	}

	const query = `
INSERT INTO box_audits (
    team_entry_public_id, reset_number, box_number, player_id, player_name,
    projected_points, injury_status, box_status, created_at, updated_at
) VALUES (
    :team_entry_public_id, :reset_number, :box_number, :player_id, :player_name,
    :projected_points, :injury_status, :box_status, :created_at, :updated_at
)`

	for _, item := range items {
		boundSQL, args, err := sqlx.Named(query, fromDomainBox(item))
		if err != nil {
			return fmt.Errorf("bind insert box %d query: %w", item.BoxNumber, err)
		}
		boundSQL = r.q.Rebind(boundSQL)
		if _, err := r.q.ExecContext(ctx, boundSQL, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("box %d already exists in generation %d", item.BoxNumber, item.ResetNumber)
			}
			return fmt.Errorf("insert box %d: %w", item.BoxNumber, err)
		}
	}

	return nil
}

func (r *BoxRepository) ListGeneration(ctx context.Context, teamEntryID string, resetNumber int) ([]box.Audit, error) {
	const query = `
SELECT team_entry_public_id, reset_number, box_number, player_id, player_name,
       projected_points, injury_status, box_status, created_at, updated_at
FROM box_audits
WHERE team_entry_public_id = $1
  AND reset_number = $2
ORDER BY box_number`

	var rows []boxRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, teamEntryID, resetNumber); err != nil {
		return nil, fmt.Errorf("list generation: %w", err)
	}

	items := make([]box.Audit, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}

	return items, nil
}

func (r *BoxRepository) GetBox(ctx context.Context, teamEntryID string, resetNumber, boxNumber int) (box.Audit, bool, error) {
	const query = `
SELECT team_entry_public_id, reset_number, box_number, player_id, player_name,
       projected_points, injury_status, box_status, created_at, updated_at
FROM box_audits
WHERE team_entry_public_id = $1
  AND reset_number = $2
  AND box_number = $3`

	var row boxRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, teamEntryID, resetNumber, boxNumber); err != nil {
		if isNotFound(err) {
			return box.Audit{}, false, nil
		}
		return box.Audit{}, false, fmt.Errorf("get box: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *BoxRepository) UpdateStatus(ctx context.Context, teamEntryID string, resetNumber, boxNumber int, from, to box.Status) error {
	if !box.CanTransition(from, to) {
		return fmt.Errorf("box %d cannot move %s -> %s", boxNumber, from, to)
	}

	const query = `
UPDATE box_audits
SET box_status = $1,
    updated_at = NOW()
WHERE team_entry_public_id = $2
  AND reset_number = $3
  AND box_number = $4
  AND box_status = $5`

	result, err := r.q.ExecContext(ctx, query, string(to), teamEntryID, resetNumber, boxNumber, string(from))
	if err != nil {
		return fmt.Errorf("update box %d status: %w", boxNumber, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update box status rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("box %d is not %s or does not exist", boxNumber, from)
	}

	return nil
}

func (row boxRow) toDomain() box.Audit {
	return box.Audit{
		TeamEntryID:     row.TeamEntryID,
		ResetNumber:     row.ResetNumber,
		BoxNumber:       row.BoxNumber,
		PlayerID:        row.PlayerID,
		PlayerName:      row.PlayerName,
		ProjectedPoints: row.ProjectedPoints,
		InjuryStatus:    row.InjuryStatus,
		Status:          box.Status(row.Status),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func fromDomainBox(item box.Audit) map[string]any {
	return map[string]any{
		"team_entry_public_id": item.TeamEntryID,
		"reset_number":         item.ResetNumber,
		"box_number":           item.BoxNumber,
		"player_id":            item.PlayerID,
		"player_name":          item.PlayerName,
		"projected_points":     item.ProjectedPoints,
		"injury_status":        item.InjuryStatus,
		"box_status":           string(item.Status),
		"created_at":           item.CreatedAt,
		"updated_at":           item.UpdatedAt,
	}
}
