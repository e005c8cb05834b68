package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/pkg/supabase"
)

const entriesTable = "daily_entries"

type entryRepository struct {
	client *supabase.Client
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(client *supabase.Client) EntryRepository {
	return &entryRepository{client: client}
}

func (r *entryRepository) Upsert(ctx context.Context, entry *models.DailyEntry) (*models.DailyEntry, error) {
	data := map[string]interface{}{
		"id":         entry.ID,
		"user_id":    entry.UserID,
		"entry_date": entry.EntryDate,
		"created_at": entry.CreatedAt,
		"responses":  entry.Responses,
	}
	if entry.TimezoneID != "" {
		data["timezone_id"] = entry.TimezoneID
	}

	// (user_id, entry_date) is unique, so a second save for the date replaces the first
	body, err := r.client.Upsert(ctx, entriesTable, data, "user_id,entry_date")
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}

	var entries []models.DailyEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entry returned")
	}
	return &entries[0], nil
}

func (r *entryRepository) GetByID(ctx context.Context, userID, id string) (*models.DailyEntry, error) {
	return r.single(ctx, supabase.Filter{
		"id":      supabase.Eq(id),
		"user_id": supabase.Eq(userID),
		"select":  "*",
	})
}

func (r *entryRepository) GetByDate(ctx context.Context, userID, date string) (*models.DailyEntry, error) {
	return r.single(ctx, supabase.Filter{
		"user_id":    supabase.Eq(userID),
		"entry_date": supabase.Eq(date),
		"select":     "*",
	})
}

func (r *entryRepository) single(ctx context.Context, query supabase.Filter) (*models.DailyEntry, error) {
	var entry models.DailyEntry
	if err := r.client.Single(ctx, entriesTable, query, &entry); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &entry, nil
}

func (r *entryRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.DailyEntry, error) {
	query := supabase.Filter{
		"user_id": supabase.Eq(userID),
		"select":  "*",
		"order":   "entry_date.desc",
	}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}

	var entries []models.DailyEntry
	if err := r.client.Select(ctx, entriesTable, query, &entries); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *entryRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var rows []struct {
		UserID string `json:"user_id"`
	}
	if err := r.client.Select(ctx, entriesTable, supabase.Filter{"select": "user_id"}, &rows); err != nil {
		return nil, fmt.Errorf("failed to list entry owners: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.UserID]; ok {
			continue
		}
		seen[row.UserID] = struct{}{}
		ids = append(ids, row.UserID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *entryRepository) Delete(ctx context.Context, userID, id string) error {
	existing, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	query := supabase.Filter{
		"id":      supabase.Eq(id),
		"user_id": supabase.Eq(userID),
	}
	if err := r.client.DeleteWhere(ctx, entriesTable, query); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}
