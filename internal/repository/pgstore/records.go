package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

type summaryRepository struct {
	db querier
}

func (r *summaryRepository) Save(ctx context.Context, record *models.SummaryRecord) error {
	w7, err := jsonParam(record.Window7)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	w30, err := jsonParam(record.Window30)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO daily_summaries (user_id, entry_id, entry_date, window_7, window_30, computed_at)
		VALUES ($1, $2, $3::date, $4, $5, $6)
		ON CONFLICT (user_id, entry_id) DO UPDATE SET
			entry_date = EXCLUDED.entry_date,
			window_7 = EXCLUDED.window_7,
			window_30 = EXCLUDED.window_30,
			computed_at = EXCLUDED.computed_at`,
		record.UserID, record.EntryID, record.EntryDate, w7, w30, record.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (r *summaryRepository) GetByEntryID(ctx context.Context, userID, entryID string) (*models.SummaryRecord, error) {
	var record models.SummaryRecord
	var w7, w30 []byte
	err := r.db.QueryRow(ctx, `
		SELECT user_id, entry_id, entry_date::text, window_7, window_30, computed_at
		FROM daily_summaries WHERE user_id = $1 AND entry_id = $2`,
		userID, entryID,
	).Scan(&record.UserID, &record.EntryID, &record.EntryDate, &w7, &w30, &record.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	if record.Window7, err = decodeJSON[models.SummaryWindow](w7); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if record.Window30, err = decodeJSON[models.SummaryWindow](w30); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &record, nil
}

type adviceRepository struct {
	db querier
}

func (r *adviceRepository) Save(ctx context.Context, record *models.AdviceRecord) error {
	advice, err := json.Marshal(record.Advice)
	if err != nil {
		return fmt.Errorf("failed to encode advice: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO advice_records (user_id, entry_id, entry_date, model, advice, prompt_hash, rule_id, generated_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, NULLIF($7, ''), $8)
		ON CONFLICT (user_id, entry_id) DO UPDATE SET
			entry_date = EXCLUDED.entry_date,
			model = EXCLUDED.model,
			advice = EXCLUDED.advice,
			prompt_hash = EXCLUDED.prompt_hash,
			rule_id = EXCLUDED.rule_id,
			generated_at = EXCLUDED.generated_at`,
		record.UserID, record.EntryID, record.EntryDate, record.Model, advice,
		record.PromptHash, record.RuleID, record.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save advice: %w", err)
	}
	return nil
}

func (r *adviceRepository) GetByEntryID(ctx context.Context, userID, entryID string) (*models.AdviceRecord, error) {
	var record models.AdviceRecord
	var advice []byte
	err := r.db.QueryRow(ctx, `
		SELECT user_id, entry_id, entry_date::text, model, advice, prompt_hash, COALESCE(rule_id, ''), generated_at
		FROM advice_records WHERE user_id = $1 AND entry_id = $2`,
		userID, entryID,
	).Scan(&record.UserID, &record.EntryID, &record.EntryDate, &record.Model, &advice,
		&record.PromptHash, &record.RuleID, &record.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get advice: %w", err)
	}
	if err := json.Unmarshal(advice, &record.Advice); err != nil {
		return nil, fmt.Errorf("failed to decode advice: %w", err)
	}
	return &record, nil
}

const insightColumns = `user_id, week_start_date::text, week_end_date::text, generated_at,
	window_7, window_30, ai_result, status, error_message`

type insightRepository struct {
	db querier
}

func (r *insightRepository) Upsert(ctx context.Context, record *models.WeeklyInsightRecord) error {
	w7, err := jsonParam(record.Window7)
	if err != nil {
		return fmt.Errorf("failed to encode weekly insight: %w", err)
	}
	w30, err := jsonParam(record.Window30)
	if err != nil {
		return fmt.Errorf("failed to encode weekly insight: %w", err)
	}
	result, err := jsonParam(record.AIResult)
	if err != nil {
		return fmt.Errorf("failed to encode weekly insight: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO weekly_insights (user_id, week_start_date, week_end_date, generated_at,
			window_7, window_30, ai_result, status, error_message)
		VALUES ($1, $2::date, $3::date, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, week_start_date) DO UPDATE SET
			week_end_date = EXCLUDED.week_end_date,
			generated_at = EXCLUDED.generated_at,
			window_7 = EXCLUDED.window_7,
			window_30 = EXCLUDED.window_30,
			ai_result = EXCLUDED.ai_result,
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message`,
		record.UserID, record.WeekStartDate, record.WeekEndDate, record.GeneratedAt,
		w7, w30, result, string(record.Status), record.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly insight: %w", err)
	}
	return nil
}

func (r *insightRepository) FindByWeekStart(ctx context.Context, userID, weekStart string) (*models.WeeklyInsightRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+insightColumns+` FROM weekly_insights WHERE user_id = $1 AND week_start_date = $2::date`,
		userID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly insight: %w", err)
	}
	return firstInsight(rows)
}

func (r *insightRepository) Latest(ctx context.Context, userID string) (*models.WeeklyInsightRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+insightColumns+` FROM weekly_insights WHERE user_id = $1 ORDER BY week_start_date DESC LIMIT 1`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest weekly insight: %w", err)
	}
	return firstInsight(rows)
}

func (r *insightRepository) List(ctx context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+insightColumns+` FROM weekly_insights
		WHERE user_id = $1
		ORDER BY week_start_date DESC
		LIMIT NULLIF($2::int, 0)`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly insights: %w", err)
	}
	return collectInsights(rows)
}

func (r *insightRepository) DeleteBefore(ctx context.Context, userID, weekStart string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM weekly_insights WHERE user_id = $1 AND week_start_date < $2::date`,
		userID, weekStart)
	if err != nil {
		return 0, fmt.Errorf("failed to delete weekly insights: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func firstInsight(rows pgx.Rows) (*models.WeeklyInsightRecord, error) {
	records, err := collectInsights(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func collectInsights(rows pgx.Rows) ([]models.WeeklyInsightRecord, error) {
	defer rows.Close()

	var records []models.WeeklyInsightRecord
	for rows.Next() {
		var rec models.WeeklyInsightRecord
		var w7, w30, result []byte
		var status string
		if err := rows.Scan(&rec.UserID, &rec.WeekStartDate, &rec.WeekEndDate, &rec.GeneratedAt,
			&w7, &w30, &result, &status, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan weekly insight: %w", err)
		}
		rec.Status = models.InsightStatus(status)

		var err error
		if rec.Window7, err = decodeJSON[models.InsightWindow](w7); err != nil {
			return nil, fmt.Errorf("failed to decode weekly insight: %w", err)
		}
		if rec.Window30, err = decodeJSON[models.InsightWindow](w30); err != nil {
			return nil, fmt.Errorf("failed to decode weekly insight: %w", err)
		}
		if rec.AIResult, err = decodeJSON[models.WeeklyInsightPayload](result); err != nil {
			return nil, fmt.Errorf("failed to decode weekly insight: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read weekly insights: %w", err)
	}
	return records, nil
}
