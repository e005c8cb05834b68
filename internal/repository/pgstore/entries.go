package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

const entryColumns = `id, user_id, entry_date::text, COALESCE(timezone_id, ''), created_at, responses`

type entryRepository struct {
	pool *pgxpool.Pool
}

func (r *entryRepository) Upsert(ctx context.Context, entry *models.DailyEntry) (*models.DailyEntry, error) {
	responses, err := json.Marshal(entry.Responses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode responses: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// A different entry on the same date is replaced; its derived rows cascade
	if _, err := tx.Exec(ctx,
		`DELETE FROM daily_entries WHERE user_id = $1 AND entry_date = $2::date AND id <> $3`,
		entry.UserID, entry.EntryDate, entry.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to replace entry: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO daily_entries (id, user_id, entry_date, timezone_id, created_at, responses)
		VALUES ($1, $2, $3::date, NULLIF($4, ''), $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			entry_date = EXCLUDED.entry_date,
			timezone_id = EXCLUDED.timezone_id,
			responses = EXCLUDED.responses
		WHERE daily_entries.user_id = EXCLUDED.user_id
		RETURNING `+entryColumns,
		entry.ID, entry.UserID, entry.EntryDate, entry.TimezoneID, entry.CreatedAt, responses,
	)
	saved, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// The id belongs to another user
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit entry: %w", err)
	}
	return saved, nil
}

func (r *entryRepository) GetByID(ctx context.Context, userID, id string) (*models.DailyEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM daily_entries WHERE user_id = $1 AND id = $2`, userID, id)
	return getEntry(row)
}

func (r *entryRepository) GetByDate(ctx context.Context, userID, date string) (*models.DailyEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM daily_entries WHERE user_id = $1 AND entry_date = $2::date`, userID, date)
	return getEntry(row)
}

func getEntry(row pgx.Row) (*models.DailyEntry, error) {
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

func (r *entryRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.DailyEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+` FROM daily_entries
		WHERE user_id = $1
		ORDER BY entry_date DESC
		LIMIT NULLIF($2::int, 0)`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []models.DailyEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *entryRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM daily_entries ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entry owners: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list entry owners: %w", err)
	}
	return ids, nil
}

func (r *entryRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM daily_entries WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (*models.DailyEntry, error) {
	var entry models.DailyEntry
	var responses []byte
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.EntryDate, &entry.TimezoneID, &entry.CreatedAt, &responses); err != nil {
		return nil, err
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &entry.Responses); err != nil {
			return nil, fmt.Errorf("failed to decode responses: %w", err)
		}
	}
	return &entry, nil
}
