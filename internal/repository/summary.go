package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/pkg/supabase"
)

const summariesTable = "daily_summaries"

type summaryRepository struct {
	client *supabase.Client
}

// NewSummaryRepository creates a new daily summary repository
func NewSummaryRepository(client *supabase.Client) SummaryRepository {
	return &summaryRepository{client: client}
}

func (r *summaryRepository) Save(ctx context.Context, record *models.SummaryRecord) error {
	data := map[string]interface{}{
		"user_id":     record.UserID,
		"entry_id":    record.EntryID,
		"entry_date":  record.EntryDate,
		"window_7":    record.Window7,
		"window_30":   record.Window30,
		"computed_at": record.ComputedAt,
	}

	if _, err := r.client.Upsert(ctx, summariesTable, data, "user_id,entry_id"); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (r *summaryRepository) GetByEntryID(ctx context.Context, userID, entryID string) (*models.SummaryRecord, error) {
	query := supabase.Filter{
		"user_id":  supabase.Eq(userID),
		"entry_id": supabase.Eq(entryID),
		"select":   "*",
	}

	var record models.SummaryRecord
	if err := r.client.Single(ctx, summariesTable, query, &record); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &record, nil
}
