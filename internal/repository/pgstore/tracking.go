package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

const trackingColumns = `id, user_id, entry_id, advice_text, generated_date::text, category, source_field,
	user_feedback, feedback_at, effectiveness_score, execution_note`

type trackingRepository struct {
	db querier
}

func (r *trackingRepository) ReplaceForEntry(ctx context.Context, userID, entryID string, items []models.AdviceTracking) error {
	if items == nil {
		items = []models.AdviceTracking{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode advice tracking: %w", err)
	}

	// The function body runs in one transaction
	if _, err := r.db.Exec(ctx, `SELECT replace_advice_tracking($1, $2, $3)`, userID, entryID, payload); err != nil {
		return fmt.Errorf("failed to replace advice tracking: %w", err)
	}
	return nil
}

func (r *trackingRepository) GetByID(ctx context.Context, userID, id string) (*models.AdviceTracking, error) {
	item, err := scanTracking(r.db.QueryRow(ctx,
		`SELECT `+trackingColumns+` FROM advice_tracking WHERE user_id = $1 AND id = $2`, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get advice tracking: %w", err)
	}
	return item, nil
}

func (r *trackingRepository) ListByEntry(ctx context.Context, userID, entryID string) ([]models.AdviceTracking, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+trackingColumns+` FROM advice_tracking WHERE user_id = $1 AND entry_id = $2 ORDER BY id`,
		userID, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list advice tracking: %w", err)
	}
	return collectTracking(rows)
}

func (r *trackingRepository) Update(ctx context.Context, item *models.AdviceTracking) error {
	var feedback *string
	if item.UserFeedback != nil {
		s := string(*item.UserFeedback)
		feedback = &s
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE advice_tracking SET
			user_feedback = $3,
			feedback_at = $4,
			effectiveness_score = $5,
			execution_note = $6
		WHERE user_id = $1 AND id = $2`,
		item.UserID, item.ID, feedback, item.FeedbackAt, item.EffectivenessScore, item.ExecutionNote,
	)
	if err != nil {
		return fmt.Errorf("failed to update advice tracking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *trackingRepository) ListExecuted(ctx context.Context, userID string, limit int) ([]models.AdviceTracking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+trackingColumns+` FROM advice_tracking
		WHERE user_id = $1 AND user_feedback = 'executed'
		ORDER BY feedback_at DESC NULLS LAST
		LIMIT NULLIF($2::int, 0)`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executed advice: %w", err)
	}
	return collectTracking(rows)
}

func collectTracking(rows pgx.Rows) ([]models.AdviceTracking, error) {
	defer rows.Close()

	var items []models.AdviceTracking
	for rows.Next() {
		item, err := scanTracking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advice tracking: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read advice tracking: %w", err)
	}
	return items, nil
}

func scanTracking(row pgx.Row) (*models.AdviceTracking, error) {
	var item models.AdviceTracking
	var category, field string
	var feedback *string
	if err := row.Scan(&item.ID, &item.UserID, &item.EntryID, &item.AdviceText, &item.GeneratedDate,
		&category, &field, &feedback, &item.FeedbackAt, &item.EffectivenessScore, &item.ExecutionNote); err != nil {
		return nil, err
	}
	item.Category = models.AdviceCategory(category)
	item.SourceField = models.AdviceField(field)
	if feedback != nil {
		f := models.Feedback(*feedback)
		item.UserFeedback = &f
	}
	return &item, nil
}
