package badgerstore

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
)

type summaryRepository struct {
	db *badger.DB
}

func (r *summaryRepository) Save(_ context.Context, record *models.SummaryRecord) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key("summary", record.UserID, record.EntryID), record)
	})
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (r *summaryRepository) GetByEntryID(_ context.Context, userID, entryID string) (*models.SummaryRecord, error) {
	var record models.SummaryRecord
	found, err := view(r.db, key("summary", userID, entryID), &record)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

type adviceRepository struct {
	db *badger.DB
}

func (r *adviceRepository) Save(_ context.Context, record *models.AdviceRecord) error {
	// A single Set inside a transaction: the record lands whole or not at all
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key("advice", record.UserID, record.EntryID), record)
	})
	if err != nil {
		return fmt.Errorf("failed to save advice: %w", err)
	}
	return nil
}

func (r *adviceRepository) GetByEntryID(_ context.Context, userID, entryID string) (*models.AdviceRecord, error) {
	var record models.AdviceRecord
	found, err := view(r.db, key("advice", userID, entryID), &record)
	if err != nil {
		return nil, fmt.Errorf("failed to get advice: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

type insightRepository struct {
	db *badger.DB
}

func (r *insightRepository) Upsert(_ context.Context, record *models.WeeklyInsightRecord) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key("insight", record.UserID, record.WeekStartDate), record)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert weekly insight: %w", err)
	}
	return nil
}

func (r *insightRepository) FindByWeekStart(_ context.Context, userID, weekStart string) (*models.WeeklyInsightRecord, error) {
	var record models.WeeklyInsightRecord
	found, err := view(r.db, key("insight", userID, weekStart), &record)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly insight: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

func (r *insightRepository) Latest(ctx context.Context, userID string) (*models.WeeklyInsightRecord, error) {
	records, err := r.List(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (r *insightRepository) List(_ context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error) {
	var records []models.WeeklyInsightRecord
	err := r.db.View(func(txn *badger.Txn) error {
		for _, k := range keysWithPrefix(txn, prefix("insight", userID), true) {
			if limit > 0 && len(records) == limit {
				break
			}
			var record models.WeeklyInsightRecord
			found, err := getJSON(txn, k, &record)
			if err != nil {
				return err
			}
			if found {
				records = append(records, record)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly insights: %w", err)
	}
	return records, nil
}

// DeleteBefore relies on YYYY-MM-DD week starts sorting as dates
func (r *insightRepository) DeleteBefore(_ context.Context, userID, weekStart string) (int, error) {
	deleted := 0
	err := r.db.Update(func(txn *badger.Txn) error {
		for _, k := range keysWithPrefix(txn, prefix("insight", userID), false) {
			if lastSegment(k) >= weekStart {
				break
			}
			if err := txn.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete weekly insights: %w", err)
	}
	return deleted, nil
}

func view(db *badger.DB, k []byte, out any) (bool, error) {
	var found bool
	err := db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, k, out)
		return err
	})
	return found, err
}
