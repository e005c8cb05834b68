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

const insightsTable = "weekly_insights"

type insightRepository struct {
	client *supabase.Client
}

// NewInsightRepository creates a new weekly insight repository
func NewInsightRepository(client *supabase.Client) InsightRepository {
	return &insightRepository{client: client}
}

func (r *insightRepository) Upsert(ctx context.Context, record *models.WeeklyInsightRecord) error {
	data := map[string]interface{}{
		"user_id":         record.UserID,
		"week_start_date": record.WeekStartDate,
		"week_end_date":   record.WeekEndDate,
		"generated_at":    record.GeneratedAt,
		"window_7":        record.Window7,
		"window_30":       record.Window30,
		"ai_result":       record.AIResult,
		"status":          record.Status,
		"error_message":   record.ErrorMessage,
	}

	if _, err := r.client.Upsert(ctx, insightsTable, data, "user_id,week_start_date"); err != nil {
		return fmt.Errorf("failed to upsert weekly insight: %w", err)
	}
	return nil
}

func (r *insightRepository) FindByWeekStart(ctx context.Context, userID, weekStart string) (*models.WeeklyInsightRecord, error) {
	return r.single(ctx, supabase.Filter{
		"user_id":         supabase.Eq(userID),
		"week_start_date": supabase.Eq(weekStart),
		"select":          "*",
	})
}

func (r *insightRepository) Latest(ctx context.Context, userID string) (*models.WeeklyInsightRecord, error) {
	return r.single(ctx, supabase.Filter{
		"user_id": supabase.Eq(userID),
		"select":  "*",
		"order":   "week_start_date.desc",
		"limit":   "1",
	})
}

func (r *insightRepository) single(ctx context.Context, query supabase.Filter) (*models.WeeklyInsightRecord, error) {
	var record models.WeeklyInsightRecord
	if err := r.client.Single(ctx, insightsTable, query, &record); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get weekly insight: %w", err)
	}
	return &record, nil
}

func (r *insightRepository) List(ctx context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error) {
	query := supabase.Filter{
		"user_id": supabase.Eq(userID),
		"select":  "*",
		"order":   "week_start_date.desc",
	}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}

	var records []models.WeeklyInsightRecord
	if err := r.client.Select(ctx, insightsTable, query, &records); err != nil {
		return nil, fmt.Errorf("failed to list weekly insights: %w", err)
	}
	return records, nil
}

func (r *insightRepository) DeleteBefore(ctx context.Context, userID, weekStart string) (int, error) {
	body, err := r.client.DeleteReturning(ctx, insightsTable, supabase.Filter{
		"user_id":         supabase.Eq(userID),
		"week_start_date": supabase.Lt(weekStart),
		"select":          "week_start_date",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete weekly insights: %w", err)
	}
	var deleted []json.RawMessage
	if err := json.Unmarshal(body, &deleted); err != nil {
		return 0, fmt.Errorf("failed to decode deleted weekly insights: %w", err)
	}
	return len(deleted), nil
}
