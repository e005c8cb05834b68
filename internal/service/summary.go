package service

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/analysis"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

// summaryLoadLimit is how many recent entries are read to build a summary.
// Entries dated after the target entry are dropped, so it exceeds the 30-day window.
const summaryLoadLimit = 60

type summaryService struct {
	entries   repository.EntryRepository
	summaries repository.SummaryRepository
	now       func() time.Time
}

// NewSummaryService creates a new daily summary service
func NewSummaryService(entries repository.EntryRepository, summaries repository.SummaryRepository) SummaryService {
	return &summaryService{entries: entries, summaries: summaries, now: time.Now}
}

// RegenerateForEntry recomputes the summary as of the entry's date and stores it
func (s *summaryService) RegenerateForEntry(ctx context.Context, userID, entryID string) (*models.SummaryRecord, error) {
	entry, err := s.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	recent, err := s.entries.ListRecent(ctx, userID, summaryLoadLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}

	payload := analysis.BuildDailySummary(entriesUpTo(recent, entry.EntryDate))
	record := &models.SummaryRecord{
		UserID:     userID,
		EntryID:    entry.ID,
		EntryDate:  entry.EntryDate,
		Window7:    payload.Window7,
		Window30:   payload.Window30,
		ComputedAt: s.now().UTC(),
	}

	if err := s.summaries.Save(context.WithoutCancel(ctx), record); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Debug("daily summary saved",
		logger.String("entry_id", entry.ID),
		logger.Bool("window_7", record.Window7 != nil),
		logger.Bool("window_30", record.Window30 != nil),
	)
	return record, nil
}

// entriesUpTo keeps entries dated on or before date. Dates are YYYY-MM-DD,
// so string order is date order.
func entriesUpTo(entries []models.DailyEntry, date string) []models.DailyEntry {
	out := make([]models.DailyEntry, 0, len(entries))
	for _, e := range entries {
		if e.EntryDate <= date {
			out = append(out, e)
		}
	}
	return out
}
