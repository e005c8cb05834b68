package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
)

// RetentionCleaner deletes weekly insights older than the retention period.
// Entries themselves are never removed.
type RetentionCleaner struct {
	entries  repository.EntryRepository
	insights repository.InsightRepository
	days     int
	location *time.Location
	now      func() time.Time
}

// NewRetentionCleaner creates a cleaner keeping the last days of insights.
// A non-positive days disables cleanup.
func NewRetentionCleaner(cfg Config, entries repository.EntryRepository, insights repository.InsightRepository) *RetentionCleaner {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &RetentionCleaner{
		entries:  entries,
		insights: insights,
		days:     cfg.RetentionDays,
		location: loc,
		now:      time.Now,
	}
}

// Cutoff is the first week start that is kept
func (c *RetentionCleaner) Cutoff() string {
	today := models.DateOf(c.now().In(c.location))
	return models.FormatDate(today.AddDate(0, 0, -c.days))
}

// RunOnce prunes every user and returns the number of deleted records
func (c *RetentionCleaner) RunOnce(ctx context.Context) (int, error) {
	if c.days <= 0 {
		return 0, nil
	}
	users, err := c.entries.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	cutoff := c.Cutoff()
	total := 0
	for _, userID := range users {
		n, err := c.insights.DeleteBefore(ctx, userID, cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to prune insights of %s: %w", userID, err)
		}
		total += n
	}
	logger.Ctx(ctx).Info("old weekly insights pruned",
		logger.String("cutoff", cutoff),
		logger.Int("deleted", total),
	)
	return total, nil
}
