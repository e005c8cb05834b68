package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

type entryRepository struct {
	db *badger.DB
}

func (r *entryRepository) Upsert(_ context.Context, entry *models.DailyEntry) (*models.DailyEntry, error) {
	saved := *entry
	err := r.db.Update(func(txn *badger.Txn) error {
		dateKey := key("entrydate", entry.UserID, entry.EntryDate)
		previousID, ok, err := getString(txn, dateKey)
		if err != nil {
			return err
		}
		// Same date, different id: the new entry replaces the old one
		if ok && previousID != entry.ID {
			if err := deleteEntry(txn, entry.UserID, previousID); err != nil {
				return err
			}
		}

		var existing models.DailyEntry
		found, err := getJSON(txn, key("entry", entry.UserID, entry.ID), &existing)
		if err != nil {
			return err
		}
		// Moving an entry to another date frees the old date
		if found && existing.EntryDate != entry.EntryDate {
			if err := txn.Delete(key("entrydate", entry.UserID, existing.EntryDate)); err != nil {
				return err
			}
		}

		if err := setJSON(txn, key("entry", entry.UserID, entry.ID), saved); err != nil {
			return err
		}
		return txn.Set(dateKey, []byte(entry.ID))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}
	return &saved, nil
}

func (r *entryRepository) GetByID(_ context.Context, userID, id string) (*models.DailyEntry, error) {
	var entry models.DailyEntry
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, key("entry", userID, id), &entry)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

func (r *entryRepository) GetByDate(ctx context.Context, userID, date string) (*models.DailyEntry, error) {
	var id string
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		id, found, err = getString(txn, key("entrydate", userID, date))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entry by date: %w", err)
	}
	if !found {
		return nil, nil
	}
	return r.GetByID(ctx, userID, id)
}

func (r *entryRepository) ListRecent(_ context.Context, userID string, limit int) ([]models.DailyEntry, error) {
	var entries []models.DailyEntry
	err := r.db.View(func(txn *badger.Txn) error {
		// Dates are YYYY-MM-DD, so reverse key order is newest first
		for _, k := range keysWithPrefix(txn, prefix("entrydate", userID), true) {
			if limit > 0 && len(entries) == limit {
				break
			}
			id, ok, err := getString(txn, k)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			var entry models.DailyEntry
			found, err := getJSON(txn, key("entry", userID, id), &entry)
			if err != nil {
				return err
			}
			if found {
				entries = append(entries, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (r *entryRepository) ListUserIDs(_ context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	err := r.db.View(func(txn *badger.Txn) error {
		for _, k := range keysWithPrefix(txn, []byte("entrydate/"), false) {
			parts := strings.SplitN(string(k), "/", 3)
			if len(parts) == 3 {
				seen[parts[1]] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entry owners: %w", err)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *entryRepository) Delete(_ context.Context, userID, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		var entry models.DailyEntry
		found, err := getJSON(txn, key("entry", userID, id), &entry)
		if err != nil {
			return err
		}
		if !found {
			return repository.ErrNotFound
		}
		return deleteEntry(txn, userID, id)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// deleteEntry removes an entry with its date index and everything derived from it
func deleteEntry(txn *badger.Txn, userID, id string) error {
	var entry models.DailyEntry
	found, err := getJSON(txn, key("entry", userID, id), &entry)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	if err := deleteTrackingForEntry(txn, userID, id); err != nil {
		return err
	}
	for _, k := range [][]byte{
		key("entry", userID, id),
		key("entrydate", userID, entry.EntryDate),
		key("summary", userID, id),
		key("advice", userID, id),
	} {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
