package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/pkg/supabase"
)

const adviceTable = "advice_records"

type adviceRepository struct {
	client *supabase.Client
}

// NewAdviceRepository creates a new advice repository
func NewAdviceRepository(client *supabase.Client) AdviceRepository {
	return &adviceRepository{client: client}
}

func (r *adviceRepository) Save(ctx context.Context, record *models.AdviceRecord) error {
	data := map[string]interface{}{
		"user_id":      record.UserID,
		"entry_id":     record.EntryID,
		"entry_date":   record.EntryDate,
		"model":        record.Model,
		"advice":       record.Advice,
		"prompt_hash":  record.PromptHash,
		"generated_at": record.GeneratedAt,
		"rule_id":      nil,
	}
	if record.RuleID != "" {
		data["rule_id"] = record.RuleID
	}

	// One statement, so the record is written whole or not at all
	if _, err := r.client.Upsert(ctx, adviceTable, data, "user_id,entry_id"); err != nil {
		return fmt.Errorf("failed to save advice: %w", err)
	}
	return nil
}

func (r *adviceRepository) GetByEntryID(ctx context.Context, userID, entryID string) (*models.AdviceRecord, error) {
	query := supabase.Filter{
		"user_id":  supabase.Eq(userID),
		"entry_id": supabase.Eq(entryID),
		"select":   "*",
	}

	var record models.AdviceRecord
	if err := r.client.Single(ctx, adviceTable, query, &record); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get advice: %w", err)
	}
	return &record, nil
}
