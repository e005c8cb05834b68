package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

type trackingRepository struct {
	db *badger.DB
}

func (r *trackingRepository) ReplaceForEntry(_ context.Context, userID, entryID string, items []models.AdviceTracking) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := deleteTrackingForEntry(txn, userID, entryID); err != nil {
			return err
		}
		for i := range items {
			item := items[i]
			item.UserID = userID
			item.EntryID = entryID
			if err := setJSON(txn, key("tracking", userID, item.ID), item); err != nil {
				return err
			}
			if err := txn.Set(key("trackingentry", userID, entryID, item.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace advice tracking: %w", err)
	}
	return nil
}

func (r *trackingRepository) GetByID(_ context.Context, userID, id string) (*models.AdviceTracking, error) {
	var item models.AdviceTracking
	found, err := view(r.db, key("tracking", userID, id), &item)
	if err != nil {
		return nil, fmt.Errorf("failed to get advice tracking: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &item, nil
}

func (r *trackingRepository) ListByEntry(_ context.Context, userID, entryID string) ([]models.AdviceTracking, error) {
	var items []models.AdviceTracking
	err := r.db.View(func(txn *badger.Txn) error {
		// ULIDs sort by creation time
		for _, k := range keysWithPrefix(txn, prefix("trackingentry", userID, entryID), false) {
			var item models.AdviceTracking
			found, err := getJSON(txn, key("tracking", userID, lastSegment(k)), &item)
			if err != nil {
				return err
			}
			if found {
				items = append(items, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list advice tracking: %w", err)
	}
	return items, nil
}

func (r *trackingRepository) Update(_ context.Context, item *models.AdviceTracking) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		k := key("tracking", item.UserID, item.ID)
		var current models.AdviceTracking
		found, err := getJSON(txn, k, &current)
		if err != nil {
			return err
		}
		if !found {
			return repository.ErrNotFound
		}
		current.UserFeedback = item.UserFeedback
		current.FeedbackAt = item.FeedbackAt
		current.EffectivenessScore = item.EffectivenessScore
		current.ExecutionNote = item.ExecutionNote
		return setJSON(txn, k, current)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to update advice tracking: %w", err)
	}
	return nil
}

func (r *trackingRepository) ListExecuted(_ context.Context, userID string, limit int) ([]models.AdviceTracking, error) {
	var items []models.AdviceTracking
	err := r.db.View(func(txn *badger.Txn) error {
		for _, k := range keysWithPrefix(txn, prefix("tracking", userID), false) {
			var item models.AdviceTracking
			found, err := getJSON(txn, k, &item)
			if err != nil {
				return err
			}
			if found && item.UserFeedback != nil && *item.UserFeedback == models.FeedbackExecuted {
				items = append(items, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list executed advice: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return feedbackTime(items[i]) > feedbackTime(items[j])
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func feedbackTime(item models.AdviceTracking) int64 {
	if item.FeedbackAt == nil {
		return 0
	}
	return item.FeedbackAt.UnixNano()
}

func deleteTrackingForEntry(txn *badger.Txn, userID, entryID string) error {
	indexPrefix := prefix("trackingentry", userID, entryID)
	for _, k := range keysWithPrefix(txn, indexPrefix, false) {
		if err := txn.Delete(key("tracking", userID, lastSegment(k))); err != nil {
			return err
		}
	}
	return deletePrefix(txn, indexPrefix)
}
