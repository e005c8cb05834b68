package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

// DefaultEntryListLimit applies when callers pass no limit
const DefaultEntryListLimit = 30

const maxEntryListLimit = 366

type entryService struct {
	entries repository.EntryRepository
	now     func() time.Time
}

// NewEntryService creates a new entry service
func NewEntryService(entries repository.EntryRepository) EntryService {
	return &entryService{entries: entries, now: time.Now}
}

func (s *entryService) UpsertEntry(ctx context.Context, userID string, req *models.UpsertEntryRequest) (*models.DailyEntry, error) {
	date, err := models.ParseDate(req.EntryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: entry_date must be YYYY-MM-DD", ErrInvalidEntry)
	}

	if req.ID != "" {
		if err := ValidateEntryID(req.ID, s.now()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
	}

	existing, err := s.entries.GetByDate(ctx, userID, models.FormatDate(date))
	if err != nil {
		return nil, err
	}

	entry := &models.DailyEntry{
		ID:         req.ID,
		UserID:     userID,
		EntryDate:  models.FormatDate(date),
		TimezoneID: req.TimezoneID,
		CreatedAt:  s.now().UTC(),
		Responses:  req.Responses,
	}
	switch {
	case existing != nil && entry.ID == "":
		// Replacing the date's answers keeps its id so derived records stay attached
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	case entry.ID == "":
		id, err := NewEntryID()
		if err != nil {
			return nil, err
		}
		entry.ID = id
	default:
		// Offline clients create the id when the entry is written
		entry.CreatedAt = EntryIDTime(entry.ID)
	}

	answeredAt := s.now().UTC()
	for i := range entry.Responses {
		if entry.Responses[i].AnsweredAt.IsZero() {
			entry.Responses[i].AnsweredAt = answeredAt
		}
	}

	saved, err := s.entries.Upsert(ctx, entry)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info("entry saved",
		logger.String("entry_id", saved.ID),
		logger.String("entry_date", saved.EntryDate),
		logger.Int("responses", len(saved.Responses)),
	)
	return saved, nil
}

func (s *entryService) GetEntry(ctx context.Context, userID, entryID string) (*models.DailyEntry, error) {
	entry, err := s.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

func (s *entryService) ListEntries(ctx context.Context, userID string, limit int) ([]models.DailyEntry, error) {
	if limit <= 0 || limit > maxEntryListLimit {
		limit = DefaultEntryListLimit
	}
	return s.entries.ListRecent(ctx, userID, limit)
}

func (s *entryService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	err := s.entries.Delete(ctx, userID, entryID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEntryNotFound
	}
	return err
}
