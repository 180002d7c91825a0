package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridplay/boxgame/internal/domain/entry"
)

type EntryRepository struct {
	q sqlx.ExtContext
}

type entryRow struct {
	PublicID         string        `db:"public_id"`
	TeamID           string        `db:"team_id"`
	Position         string        `db:"position"`
	Week             int           `db:"week"`
	LeagueSettingsID string        `db:"league_settings_id"`
	PoolSize         int           `db:"pool_size"`
	ResetCount       int           `db:"reset_count"`
	SelectedBox      sql.NullInt64 `db:"selected_box"`
	Round            int           `db:"round"`
	Status           string        `db:"status"`
	FinalPlayerID    string        `db:"final_player_id"`
	Version          int           `db:"version"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

const entryColumns = `
public_id, team_id, position, week, league_settings_id, pool_size,
reset_count, selected_box, round, status, final_player_id, version,
created_at, updated_at`

func (r *EntryRepository) GetByID(ctx context.Context, id string) (entry.TeamEntry, bool, error) {
	query := `SELECT ` + entryColumns + `
FROM team_entries
WHERE public_id = $1`

	var row entryRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, id); err != nil {
		if isNotFound(err) {
			return entry.TeamEntry{}, false, nil
		}
		return entry.TeamEntry{}, false, fmt.Errorf("get entry: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *EntryRepository) GetActiveByTeamPosition(ctx context.Context, teamID string, position entry.Position) (entry.TeamEntry, bool, error) {
	query := `SELECT ` + entryColumns + `
FROM team_entries
WHERE team_id = $1
  AND position = $2
  AND status <> 'finished'`

	var row entryRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, teamID, string(position)); err != nil {
		if isNotFound(err) {
			return entry.TeamEntry{}, false, nil
		}
		return entry.TeamEntry{}, false, fmt.Errorf("get active entry: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *EntryRepository) Create(ctx context.Context, item entry.TeamEntry) error {
	const query = `
INSERT INTO team_entries (
    public_id, team_id, position, week, league_settings_id, pool_size,
    reset_count, selected_box, round, status, final_player_id, version,
    created_at, updated_at
) VALUES (
    :public_id, :team_id, :position, :week, :league_settings_id, :pool_size,
    :reset_count, :selected_box, :round, :status, :final_player_id, :version,
    :created_at, :updated_at
)`

	boundSQL, args, err := sqlx.Named(query, fromDomainEntry(item))
	if err != nil {
		return fmt.Errorf("bind create entry query: %w", err)
	}
	boundSQL = r.q.Rebind(boundSQL)

	if _, err := r.q.ExecContext(ctx, boundSQL, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("team %s already has an active %s entry", item.TeamID, item.Position)
		}
		return fmt.Errorf("create entry: %w", err)
	}

	return nil
}

func (r *EntryRepository) Update(ctx context.Context, item entry.TeamEntry) error {
	const query = `
UPDATE team_entries
SET week = :week,
    league_settings_id = :league_settings_id,
    pool_size = :pool_size,
    reset_count = :reset_count,
    selected_box = :selected_box,
    round = :round,
    status = :status,
    final_player_id = :final_player_id,
    version = version + 1,
    updated_at = :updated_at
WHERE public_id = :public_id
  AND version = :version`

	boundSQL, args, err := sqlx.Named(query, fromDomainEntry(item))
	if err != nil {
		return fmt.Errorf("bind update entry query: %w", err)
	}
	boundSQL = r.q.Rebind(boundSQL)

	result, err := r.q.ExecContext(ctx, boundSQL, args...)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %s version %d is stale or missing", item.ID, item.Version)
	}

	return nil
}

func (row entryRow) toDomain() entry.TeamEntry {
	item := entry.TeamEntry{
		ID:               row.PublicID,
		TeamID:           row.TeamID,
		Position:         entry.Position(row.Position),
		Week:             row.Week,
		LeagueSettingsID: row.LeagueSettingsID,
		PoolSize:         row.PoolSize,
		ResetCount:       row.ResetCount,
		Round:            row.Round,
		Status:           entry.Status(row.Status),
		FinalPlayerID:    row.FinalPlayerID,
		Version:          row.Version,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.SelectedBox.Valid {
		n := int(row.SelectedBox.Int64)
		item.SelectedBox = &n
	}
	return item
}

func fromDomainEntry(item entry.TeamEntry) map[string]any {
	selectedBox := sql.NullInt64{}
	if item.SelectedBox != nil {
		selectedBox = sql.NullInt64{Int64: int64(*item.SelectedBox), Valid: true}
	}

	return map[string]any{
		"public_id":          item.ID,
		"team_id":            item.TeamID,
		"position":           string(item.Position),
		"week":               item.Week,
		"league_settings_id": item.LeagueSettingsID,
		"pool_size":          item.PoolSize,
		"reset_count":        item.ResetCount,
		"selected_box":       selectedBox,
		"round":              item.Round,
		"status":             string(item.Status),
		"final_player_id":    item.FinalPlayerID,
		"version":            item.Version,
		"created_at":         item.CreatedAt,
		"updated_at":         item.UpdatedAt,
	}
}
