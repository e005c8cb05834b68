package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/pkg/supabase"
)

const (
	trackingTable = "advice_tracking"

	// replaceTrackingFunction deletes and inserts an entry's items in one transaction
	replaceTrackingFunction = "replace_advice_tracking"
)

type trackingRepository struct {
	client *supabase.Client
}

// NewTrackingRepository creates a new advice tracking repository
func NewTrackingRepository(client *supabase.Client) TrackingRepository {
	return &trackingRepository{client: client}
}

func (r *trackingRepository) ReplaceForEntry(ctx context.Context, userID, entryID string, items []models.AdviceTracking) error {
	if items == nil {
		items = []models.AdviceTracking{}
	}
	params := map[string]interface{}{
		"p_user_id":  userID,
		"p_entry_id": entryID,
		"p_items":    items,
	}

	if _, err := r.client.RPC(ctx, replaceTrackingFunction, params); err != nil {
		return fmt.Errorf("failed to replace advice tracking: %w", err)
	}
	return nil
}

func (r *trackingRepository) GetByID(ctx context.Context, userID, id string) (*models.AdviceTracking, error) {
	query := supabase.Filter{
		"id":      supabase.Eq(id),
		"user_id": supabase.Eq(userID),
		"select":  "*",
	}

	var item models.AdviceTracking
	if err := r.client.Single(ctx, trackingTable, query, &item); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get advice tracking: %w", err)
	}
	return &item, nil
}

func (r *trackingRepository) ListByEntry(ctx context.Context, userID, entryID string) ([]models.AdviceTracking, error) {
	query := supabase.Filter{
		"user_id":  supabase.Eq(userID),
		"entry_id": supabase.Eq(entryID),
		"select":   "*",
		"order":    "id.asc",
	}

	var items []models.AdviceTracking
	if err := r.client.Select(ctx, trackingTable, query, &items); err != nil {
		return nil, fmt.Errorf("failed to list advice tracking: %w", err)
	}
	return items, nil
}

func (r *trackingRepository) Update(ctx context.Context, item *models.AdviceTracking) error {
	query := supabase.Filter{
		"id":      supabase.Eq(item.ID),
		"user_id": supabase.Eq(item.UserID),
	}
	data := map[string]interface{}{
		"user_feedback":       item.UserFeedback,
		"feedback_at":         item.FeedbackAt,
		"effectiveness_score": item.EffectivenessScore,
		"execution_note":      item.ExecutionNote,
	}

	body, err := r.client.UpdateWhere(ctx, trackingTable, query, data)
	if err != nil {
		return fmt.Errorf("failed to update advice tracking: %w", err)
	}

	var updated []models.AdviceTracking
	if err := json.Unmarshal(body, &updated); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(updated) == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *trackingRepository) ListExecuted(ctx context.Context, userID string, limit int) ([]models.AdviceTracking, error) {
	query := supabase.Filter{
		"user_id":       supabase.Eq(userID),
		"user_feedback": supabase.Eq(string(models.FeedbackExecuted)),
		"select":        "*",
		"order":         "feedback_at.desc",
	}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}

	var items []models.AdviceTracking
	if err := r.client.Select(ctx, trackingTable, query, &items); err != nil {
		return nil, fmt.Errorf("failed to list executed advice: %w", err)
	}
	return items, nil
}
