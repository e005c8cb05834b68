package service

import (
	"context"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// AdviceClient is the remote advice service. It is satisfied by
// *deepseek.Client and *deepseek.MockClient.
type AdviceClient interface {
	FetchAdvice(ctx context.Context, apiKey, systemPrompt, userPrompt string) (models.AdvicePayload, error)
	FetchWeeklyInsight(ctx context.Context, apiKey, systemPrompt, userPrompt string) (models.WeeklyInsightPayload, error)
	Model() string
}

// EntryService defines the interface for daily entry business logic
type EntryService interface {
	UpsertEntry(ctx context.Context, userID string, req *models.UpsertEntryRequest) (*models.DailyEntry, error)
	GetEntry(ctx context.Context, userID, entryID string) (*models.DailyEntry, error)
	ListEntries(ctx context.Context, userID string, limit int) ([]models.DailyEntry, error)
	DeleteEntry(ctx context.Context, userID, entryID string) error
}

// SummaryService builds and stores the 7/30 day summary of an entry
type SummaryService interface {
	RegenerateForEntry(ctx context.Context, userID, entryID string) (*models.SummaryRecord, error)
}

// AdviceService runs local rules and the remote advice flow for an entry
type AdviceService interface {
	GenerateForEntry(ctx context.Context, userID, entryID string) (*models.AdviceRecord, error)
	GetForEntry(ctx context.Context, userID, entryID string) (*models.AdviceRecord, error)
}

// TrackingService manages trackable advice items and their feedback
type TrackingService interface {
	SaveFromAdvice(ctx context.Context, userID, entryID, entryDate string, payload models.AdvicePayload) ([]models.AdviceTracking, error)
	ListForEntry(ctx context.Context, userID, entryID string) ([]models.AdviceTracking, error)
	RecordFeedback(ctx context.Context, userID, trackingID string, req *models.FeedbackRequest) (*models.AdviceTracking, error)
	Effectiveness(ctx context.Context, userID string) (*models.EffectivenessSummary, error)
}

// InsightService serves the locally computed weekly statistics
type InsightService interface {
	LocalSummary(ctx context.Context, userID string, end time.Time) (models.InsightLocalSummary, error)
	EnhancedSummary(ctx context.Context, userID string, end time.Time) (*models.EnhancedWeeklySummary, error)
}

// WeeklyInsightService runs the weekly insight state machine
type WeeklyInsightService interface {
	GetWeeklyInsight(ctx context.Context, userID string, force bool) (*models.WeeklyInsightResult, error)
	// RefreshAsync starts a forced generation in the background and reports Pending
	RefreshAsync(ctx context.Context, userID string) (*models.WeeklyInsightResult, error)
	History(ctx context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error)
	// Wait blocks until background refreshes finish
	Wait()
}
