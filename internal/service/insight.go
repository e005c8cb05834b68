package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/analysis"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

type insightService struct {
	entries repository.EntryRepository
}

// NewInsightService creates the service for locally computed weekly statistics
func NewInsightService(entries repository.EntryRepository) InsightService {
	return &insightService{entries: entries}
}

// LocalSummary returns the 7 and 30 day insight windows ending at end
func (s *insightService) LocalSummary(ctx context.Context, userID string, end time.Time) (models.InsightLocalSummary, error) {
	recent, err := s.recentUpTo(ctx, userID, end, insightLoadLimit)
	if err != nil {
		return models.InsightLocalSummary{}, err
	}
	return analysis.BuildInsightSummary(recent, end), nil
}

// EnhancedSummary returns the enhanced analysis of the week ending at end,
// or nil when that week has too few entries
func (s *insightService) EnhancedSummary(ctx context.Context, userID string, end time.Time) (*models.EnhancedWeeklySummary, error) {
	recent, err := s.recentUpTo(ctx, userID, end, enhancedLoadLimit)
	if err != nil {
		return nil, err
	}
	return analysis.BuildEnhancedWeeklySummary(recent, end), nil
}

// recentUpTo loads recent entries and drops those after end. Entries newer
// than end still count against limit, so it is padded by the gap to today.
func (s *insightService) recentUpTo(ctx context.Context, userID string, end time.Time, limit int) ([]models.DailyEntry, error) {
	if gap := int(time.Since(models.DateOf(end)).Hours() / 24); gap > 0 {
		limit += min(gap, maxEntryListLimit)
	}
	recent, err := s.entries.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}
	return entriesUpTo(recent, models.FormatDate(end)), nil
}
