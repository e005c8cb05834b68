package repository

import (
	"context"
	"errors"
	"io"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

// ErrNotFound is returned by mutations that target a row which does not exist.
// Lookups report a miss as (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// EntryRepository defines the interface for daily entry data access.
// Every method is scoped to one user.
type EntryRepository interface {
	// Upsert saves an entry, replacing any entry the user has for the same date
	Upsert(ctx context.Context, entry *models.DailyEntry) (*models.DailyEntry, error)
	GetByID(ctx context.Context, userID, id string) (*models.DailyEntry, error)
	GetByDate(ctx context.Context, userID, date string) (*models.DailyEntry, error)
	// ListRecent returns up to limit entries, newest entry_date first
	ListRecent(ctx context.Context, userID string, limit int) ([]models.DailyEntry, error)
	// ListUserIDs returns every user that has at least one entry
	ListUserIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, userID, id string) error
}

// SummaryRepository stores the daily summary computed for an entry
type SummaryRepository interface {
	Save(ctx context.Context, record *models.SummaryRecord) error
	GetByEntryID(ctx context.Context, userID, entryID string) (*models.SummaryRecord, error)
}

// AdviceRepository stores at most one advice record per entry
type AdviceRepository interface {
	// Save replaces any advice previously stored for the same entry
	Save(ctx context.Context, record *models.AdviceRecord) error
	GetByEntryID(ctx context.Context, userID, entryID string) (*models.AdviceRecord, error)
}

// InsightRepository stores weekly insight records keyed by week start date
type InsightRepository interface {
	// Upsert overwrites the record for the same (user, week start)
	Upsert(ctx context.Context, record *models.WeeklyInsightRecord) error
	FindByWeekStart(ctx context.Context, userID, weekStart string) (*models.WeeklyInsightRecord, error)
	Latest(ctx context.Context, userID string) (*models.WeeklyInsightRecord, error)
	// List returns up to limit records, newest week first
	List(ctx context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error)
	// DeleteBefore removes records whose week starts before weekStart and reports how many
	DeleteBefore(ctx context.Context, userID, weekStart string) (int, error)
}

// TrackingRepository stores trackable advice items and their feedback
type TrackingRepository interface {
	// ReplaceForEntry atomically swaps the items of an entry for the given ones
	ReplaceForEntry(ctx context.Context, userID, entryID string, items []models.AdviceTracking) error
	GetByID(ctx context.Context, userID, id string) (*models.AdviceTracking, error)
	ListByEntry(ctx context.Context, userID, entryID string) ([]models.AdviceTracking, error)
	// Update writes the feedback fields of an existing item
	Update(ctx context.Context, item *models.AdviceTracking) error
	// ListExecuted returns up to limit executed items, most recent feedback first
	ListExecuted(ctx context.Context, userID string, limit int) ([]models.AdviceTracking, error)
}

// Store groups the repositories of one storage backend
type Store struct {
	Entries   EntryRepository
	Summaries SummaryRepository
	Advice    AdviceRepository
	Insights  InsightRepository
	Tracking  TrackingRepository

	// Closer releases the backend, if it holds resources
	Closer io.Closer
}

// Close releases the underlying backend
func (s *Store) Close() error {
	if s == nil || s.Closer == nil {
		return nil
	}
	return s.Closer.Close()
}
