package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
	"github.com/JonnyWalker81/heldairy/backend/internal/telemetry"
)

const (
	// EffectivenessWindow is how many recent executed items the summary covers
	EffectivenessWindow = 20
	// TopRatedCount is how many scored examples the summary lists
	TopRatedCount = 3

	minEffectivenessScore = 1
	maxEffectivenessScore = 5
)

type trackingService struct {
	tracking repository.TrackingRepository
	now      func() time.Time
}

// NewTrackingService creates a new advice tracking service
func NewTrackingService(tracking repository.TrackingRepository) TrackingService {
	return &trackingService{tracking: tracking, now: time.Now}
}

// SaveFromAdvice splits a payload into trackable items and replaces the
// entry's previous items with them
func (s *trackingService) SaveFromAdvice(ctx context.Context, userID, entryID, entryDate string, payload models.AdvicePayload) ([]models.AdviceTracking, error) {
	items := make([]models.AdviceTracking, 0, len(payload.Observations)+len(payload.Actions)+len(payload.TomorrowFocus))
	add := func(texts []string, field models.AdviceField) {
		for _, text := range texts {
			items = append(items, models.AdviceTracking{
				// ulid.Make is monotonic, so ids keep payload order
				ID:            ulid.Make().String(),
				UserID:        userID,
				EntryID:       entryID,
				AdviceText:    text,
				GeneratedDate: entryDate,
				Category:      models.InferCategory(text),
				SourceField:   field,
			})
		}
	}
	add(payload.Observations, models.FieldObservation)
	add(payload.Actions, models.FieldAction)
	add(payload.TomorrowFocus, models.FieldTomorrowFocus)

	if err := s.tracking.ReplaceForEntry(ctx, userID, entryID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *trackingService) ListForEntry(ctx context.Context, userID, entryID string) ([]models.AdviceTracking, error) {
	return s.tracking.ListByEntry(ctx, userID, entryID)
}

func (s *trackingService) RecordFeedback(ctx context.Context, userID, trackingID string, req *models.FeedbackRequest) (*models.AdviceTracking, error) {
	switch req.Feedback {
	case models.FeedbackHelpful, models.FeedbackNotHelpful, models.FeedbackExecuted, models.FeedbackDismissed:
	default:
		return nil, fmt.Errorf("%w: unknown feedback %q", ErrInvalidEntry, req.Feedback)
	}

	item, err := s.tracking.GetByID(ctx, userID, trackingID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrTrackingNotFound
	}

	feedback := req.Feedback
	at := s.now().UTC()
	item.UserFeedback = &feedback
	item.FeedbackAt = &at
	if feedback == models.FeedbackExecuted {
		item.EffectivenessScore = clampScore(req.EffectivenessScore)
		item.ExecutionNote = req.ExecutionNote.Apply(item.ExecutionNote)
	}

	if err := s.tracking.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrackingNotFound
		}
		return nil, err
	}

	telemetry.RecordFeedback(ctx, string(feedback))
	logger.Ctx(ctx).Info("advice feedback recorded",
		logger.String("tracking_id", item.ID),
		logger.String("feedback", string(feedback)),
	)
	return item, nil
}

// Effectiveness summarizes the most recent executed advice
func (s *trackingService) Effectiveness(ctx context.Context, userID string) (*models.EffectivenessSummary, error) {
	executed, err := s.tracking.ListExecuted(ctx, userID, EffectivenessWindow)
	if err != nil {
		return nil, err
	}
	return summarizeEffectiveness(executed), nil
}

func summarizeEffectiveness(executed []models.AdviceTracking) *models.EffectivenessSummary {
	summary := &models.EffectivenessSummary{
		ExecutedCount: len(executed),
		Categories:    []models.CategoryEffectiveness{},
		TopRated:      []models.AdviceTracking{},
	}
	if len(executed) == 0 {
		return summary
	}

	var scored []models.AdviceTracking
	var order []models.AdviceCategory
	byCategory := map[models.AdviceCategory][]models.AdviceTracking{}
	for _, item := range executed {
		if _, ok := byCategory[item.Category]; !ok {
			order = append(order, item.Category)
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
		if item.EffectivenessScore != nil {
			scored = append(scored, item)
		}
	}

	summary.AverageScore = averageScore(scored)
	for _, category := range order {
		items := byCategory[category]
		summary.Categories = append(summary.Categories, models.CategoryEffectiveness{
			Category:     category,
			Executed:     len(items),
			AverageScore: averageScore(items),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].EffectivenessScore > *scored[j].EffectivenessScore
	})
	if len(scored) > TopRatedCount {
		scored = scored[:TopRatedCount]
	}
	summary.TopRated = scored
	return summary
}

// averageScore is nil when no item carries a score
func averageScore(items []models.AdviceTracking) *float64 {
	var sum, n int
	for _, item := range items {
		if item.EffectivenessScore != nil {
			sum += *item.EffectivenessScore
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}

func clampScore(score *int) *int {
	if score == nil {
		return nil
	}
	v := min(max(*score, minEffectivenessScore), maxEffectivenessScore)
	return &v
}
