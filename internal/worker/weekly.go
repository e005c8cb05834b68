// Package worker runs the background jobs of the API: weekly insight
// generation for every user and retention cleanup of old insights.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
	"github.com/JonnyWalker81/heldairy/backend/internal/service"
	"github.com/JonnyWalker81/heldairy/backend/internal/telemetry"
)

// Config controls the background jobs
type Config struct {
	Interval       time.Duration
	MaxTries       uint
	Concurrency    int
	InitialBackoff time.Duration
	// Location decides which calendar day "today" is
	Location      *time.Location
	RetentionDays int
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		Interval:       6 * time.Hour,
		MaxTries:       3,
		Concurrency:    4,
		InitialBackoff: 2 * time.Second,
		Location:       time.UTC,
		RetentionDays:  90,
	}
}

// Result is the outcome of the weekly job for one user
type Result string

const (
	ResultGenerated Result = "generated"
	ResultSkipped   Result = "skipped"
	ResultNoData    Result = "no_data"
	ResultFailed    Result = "failed"
)

// Report summarizes one weekly run
type Report struct {
	Week     models.WeekRange
	Users    int
	Disabled bool
	Counts   map[Result]int
}

// WeeklyScheduler generates the weekly insight of every user that does not
// have one for the current week yet
type WeeklyScheduler struct {
	entries  repository.EntryRepository
	insights repository.InsightRepository
	weekly   service.WeeklyInsightService
	settings service.SettingsProvider
	cfg      Config
	now      func() time.Time
}

// NewWeeklyScheduler creates a weekly scheduler. Zero config fields take DefaultConfig values.
func NewWeeklyScheduler(cfg Config, entries repository.EntryRepository, insights repository.InsightRepository, weekly service.WeeklyInsightService, settings service.SettingsProvider) *WeeklyScheduler {
	def := DefaultConfig()
	if cfg.MaxTries == 0 {
		cfg.MaxTries = def.MaxTries
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	return &WeeklyScheduler{
		entries:  entries,
		insights: insights,
		weekly:   weekly,
		settings: settings,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RunOnce processes every user with entries. Per-user failures are counted,
// not returned; the error is for failures that stop the whole run.
func (s *WeeklyScheduler) RunOnce(ctx context.Context) (*Report, error) {
	log := logger.Ctx(ctx)
	week := models.WeekRangeFor(s.now().In(s.cfg.Location))
	report := &Report{Week: week, Counts: map[Result]int{}}

	settings, err := s.settings.CurrentSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read AI settings: %w", err)
	}
	if err := settings.Check(); err != nil {
		log.Info("weekly insight job skipped", logger.Err(err))
		report.Disabled = true
		return report, nil
	}

	users, err := s.entries.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	report.Users = len(users)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, userID := range users {
		g.Go(func() error {
			result := s.processUser(gctx, userID, week)
			telemetry.RecordWorkerUser(gctx, string(result))
			mu.Lock()
			report.Counts[result]++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return report, err
	}

	log.Info("weekly insight job finished",
		logger.String("week_start", week.StartDate()),
		logger.Int("users", report.Users),
		logger.Int("generated", report.Counts[ResultGenerated]),
		logger.Int("failed", report.Counts[ResultFailed]),
	)
	return report, nil
}

func (s *WeeklyScheduler) processUser(ctx context.Context, userID string, week models.WeekRange) Result {
	ctx = logger.WithUserID(ctx, userID)
	ctx = logger.WithWeekStart(ctx, week.StartDate())
	log := logger.Ctx(ctx)

	existing, err := s.insights.FindByWeekStart(ctx, userID, week.StartDate())
	if err != nil {
		log.Warn("failed to check weekly insight", logger.Err(err))
		return ResultFailed
	}
	if existing != nil {
		return ResultSkipped
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.cfg.InitialBackoff

	result, err := backoff.Retry(ctx, func() (Result, error) {
		res, err := s.weekly.GetWeeklyInsight(ctx, userID, true)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		switch res.Status {
		case models.WeeklyStatusSuccess:
			return ResultGenerated, nil
		case models.WeeklyStatusNoData:
			return ResultNoData, nil
		case models.WeeklyStatusPending:
			return ResultSkipped, nil
		default:
			return "", fmt.Errorf("weekly insight %s: %s", res.Status, res.Message)
		}
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(s.cfg.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("weekly insight attempt failed", logger.Err(err), logger.Duration("retry_in", next))
		}),
	)
	if err != nil {
		log.Error("weekly insight gave up", logger.Err(err))
		return ResultFailed
	}
	return result
}
