package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JonnyWalker81/heldairy/backend/internal/analysis"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
	"github.com/JonnyWalker81/heldairy/backend/internal/telemetry"
	"github.com/JonnyWalker81/heldairy/backend/pkg/deepseek"
)

const (
	// insightLoadLimit covers the 30 day window ending on the last day of the week
	insightLoadLimit = 40

	// DefaultHistoryLimit applies when History is called without a limit
	DefaultHistoryLimit = 12

	// generationTimeout bounds a generation detached from its caller
	generationTimeout = 2 * time.Minute
)

// User-visible weekly messages
const (
	msgNoData        = "Not enough entries for a weekly insight yet"
	msgPending       = "Weekly insight is being generated"
	msgGenerateRetry = "Weekly insight generation failed, please try again later"
)

// WeeklyAction is what the state machine does with a request
type WeeklyAction int

const (
	// WeeklyServeCache returns the stored success record
	WeeklyServeCache WeeklyAction = iota
	// WeeklyGenerate runs a new generation for the week
	WeeklyGenerate
)

// DecideWeekly picks between the cache and a new generation. Only a
// successful record is served; a missing or failed record always
// regenerates, whatever the day, and force skips the cache.
func DecideWeekly(cached *models.WeeklyInsightRecord, force bool) WeeklyAction {
	if cached != nil && cached.Status == models.InsightStatusSuccess && !force {
		return WeeklyServeCache
	}
	return WeeklyGenerate
}

type weeklyInsightService struct {
	entries  repository.EntryRepository
	insights repository.InsightRepository
	client   AdviceClient
	settings SettingsProvider
	location *time.Location
	now      func() time.Time

	group    singleflight.Group
	inflight sync.Map
	wg       sync.WaitGroup
}

// NewWeeklyInsightService creates the weekly insight state machine. The
// location decides which calendar day "today" is; nil means UTC.
func NewWeeklyInsightService(entries repository.EntryRepository, insights repository.InsightRepository, client AdviceClient, settings SettingsProvider, location *time.Location) WeeklyInsightService {
	if location == nil {
		location = time.UTC
	}
	return &weeklyInsightService{
		entries:  entries,
		insights: insights,
		client:   client,
		settings: settings,
		location: location,
		now:      time.Now,
	}
}

func (s *weeklyInsightService) currentWeek() models.WeekRange {
	return models.WeekRangeFor(s.now().In(s.location))
}

func weeklyKey(userID string, week models.WeekRange) string {
	return userID + "|" + week.StartDate()
}

func (s *weeklyInsightService) GetWeeklyInsight(ctx context.Context, userID string, force bool) (*models.WeeklyInsightResult, error) {
	week := s.currentWeek()
	ctx = logger.WithWeekStart(ctx, week.StartDate())

	cached, err := s.insights.FindByWeekStart(ctx, userID, week.StartDate())
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly insight: %w", err)
	}
	if DecideWeekly(cached, force) == WeeklyServeCache {
		result := cachedResult(cached)
		telemetry.RecordWeekly(ctx, string(result.Status), true)
		return result, nil
	}

	key := weeklyKey(userID, week)
	if _, running := s.inflight.Load(key); running {
		return s.record(ctx, pendingResult(week)), nil
	}

	// The generation outlives a caller that goes away; the callers sharing
	// it still get the result.
	ch := s.group.DoChan(key, func() (any, error) {
		s.wg.Add(1)
		defer s.wg.Done()
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generationTimeout)
		defer cancel()
		return s.generate(gctx, userID, week, cached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return s.record(ctx, res.Val.(*models.WeeklyInsightResult)), nil
	}
}

// RefreshAsync checks the preconditions synchronously and runs a forced
// generation in the background
func (s *weeklyInsightService) RefreshAsync(ctx context.Context, userID string) (*models.WeeklyInsightResult, error) {
	week := s.currentWeek()
	ctx = logger.WithWeekStart(ctx, week.StartDate())

	if _, result, err := s.loadSettings(ctx, week); err != nil || result != nil {
		return result, err
	}

	key := weeklyKey(userID, week)
	if _, running := s.inflight.Load(key); running {
		return s.record(ctx, pendingResult(week)), nil
	}

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), generationTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		_, err, _ := s.group.Do(key, func() (any, error) {
			cached, err := s.insights.FindByWeekStart(bg, userID, week.StartDate())
			if err != nil {
				return nil, err
			}
			return s.generate(bg, userID, week, cached)
		})
		if err != nil {
			logger.Ctx(bg).Error("background weekly refresh failed", logger.Err(err))
		}
	}()

	return s.record(ctx, pendingResult(week)), nil
}

// Wait blocks until background refreshes finish
func (s *weeklyInsightService) Wait() {
	s.wg.Wait()
}

func (s *weeklyInsightService) History(ctx context.Context, userID string, limit int) ([]models.WeeklyInsightRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.insights.List(ctx, userID, limit)
}

// generate runs one attempt and persists its outcome. Failed attempts are
// stored as failed records so the next request regenerates.
func (s *weeklyInsightService) generate(ctx context.Context, userID string, week models.WeekRange, cached *models.WeeklyInsightRecord) (*models.WeeklyInsightResult, error) {
	key := weeklyKey(userID, week)
	s.inflight.Store(key, struct{}{})
	defer s.inflight.Delete(key)

	log := logger.Ctx(ctx)

	recent, err := s.entries.ListRecent(ctx, userID, insightLoadLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent entries: %w", err)
	}
	summary := analysis.BuildInsightSummary(recent, week.End)
	if cached == nil && summary.IsEmpty() {
		return &models.WeeklyInsightResult{
			Status:        models.WeeklyStatusNoData,
			WeekStartDate: week.StartDate(),
			WeekEndDate:   week.EndDate(),
			Message:       msgNoData,
		}, nil
	}

	settings, result, err := s.loadSettings(ctx, week)
	if err != nil || result != nil {
		return result, err
	}

	prompt := BuildWeeklyPrompt(week, summary)
	start := time.Now()
	raw, err := s.client.FetchWeeklyInsight(ctx, settings.APIKey, weeklySystemPrompt, prompt)
	if isCancellation(ctx, err) {
		return nil, ctx.Err()
	}

	record := &models.WeeklyInsightRecord{
		UserID:        userID,
		WeekStartDate: week.StartDate(),
		WeekEndDate:   week.EndDate(),
		GeneratedAt:   s.now().UTC(),
		Window7:       summary.Window7,
		Window30:      summary.Window30,
	}

	var (
		outcome Outcome
		message string
	)
	switch {
	case err != nil && deepseek.IsFormatError(err):
		outcome, message = OutcomeFormatError, ErrInvalidAIResponse.Error()
		record.Status = models.InsightStatusFailed
		record.ErrorMessage = errorMessage(err.Error())
	case err != nil:
		outcome, message = OutcomeTransportError, msgGenerateRetry
		record.Status = models.InsightStatusFailed
		record.ErrorMessage = errorMessage(err.Error())
	default:
		normalized := raw.Normalized()
		if issues := normalized.ValidationErrors(); len(issues) > 0 {
			outcome, message = OutcomeInvalid, ErrInvalidAIResponse.Error()
			record.Status = models.InsightStatusFailed
			record.ErrorMessage = errorMessage(strings.Join(issues, ", "))
		} else {
			outcome = OutcomeValid
			record.Status = models.InsightStatusSuccess
			record.AIResult = &normalized
		}
	}
	telemetry.RecordAIAttempt(ctx, "weekly", outcome.String(), time.Since(start))

	if err := s.insights.Upsert(context.WithoutCancel(ctx), record); err != nil {
		return nil, fmt.Errorf("failed to save weekly insight: %w", err)
	}

	if record.Status == models.InsightStatusFailed {
		log.Warn("weekly insight generation failed",
			logger.String("outcome", outcome.String()),
			logger.String("error", *record.ErrorMessage),
		)
		return &models.WeeklyInsightResult{
			Status:        models.WeeklyStatusError,
			WeekStartDate: week.StartDate(),
			WeekEndDate:   week.EndDate(),
			Message:       message,
		}, nil
	}

	log.Info("weekly insight generated")
	generatedAt := record.GeneratedAt
	return &models.WeeklyInsightResult{
		Status:        models.WeeklyStatusSuccess,
		Payload:       record.AIResult,
		GeneratedAt:   &generatedAt,
		WeekStartDate: week.StartDate(),
		WeekEndDate:   week.EndDate(),
	}, nil
}

// loadSettings returns a Disabled or Error result when AI is not usable
func (s *weeklyInsightService) loadSettings(ctx context.Context, week models.WeekRange) (AISettings, *models.WeeklyInsightResult, error) {
	settings, err := s.settings.CurrentSettings(ctx)
	if err != nil {
		return AISettings{}, nil, fmt.Errorf("failed to read AI settings: %w", err)
	}
	err = settings.Check()
	if err == nil {
		return settings, nil, nil
	}
	status := models.WeeklyStatusError
	if errors.Is(err, ErrAIDisabled) {
		status = models.WeeklyStatusDisabled
	}
	return settings, &models.WeeklyInsightResult{
		Status:        status,
		WeekStartDate: week.StartDate(),
		WeekEndDate:   week.EndDate(),
		Message:       err.Error(),
	}, nil
}

func (s *weeklyInsightService) record(ctx context.Context, result *models.WeeklyInsightResult) *models.WeeklyInsightResult {
	telemetry.RecordWeekly(ctx, string(result.Status), result.Cached)
	return result
}

func cachedResult(record *models.WeeklyInsightRecord) *models.WeeklyInsightResult {
	generatedAt := record.GeneratedAt
	return &models.WeeklyInsightResult{
		Status:        models.WeeklyStatusSuccess,
		Payload:       record.AIResult,
		GeneratedAt:   &generatedAt,
		WeekStartDate: record.WeekStartDate,
		WeekEndDate:   record.WeekEndDate,
		Cached:        true,
	}
}

func pendingResult(week models.WeekRange) *models.WeeklyInsightResult {
	return &models.WeeklyInsightResult{
		Status:        models.WeeklyStatusPending,
		WeekStartDate: week.StartDate(),
		WeekEndDate:   week.EndDate(),
		Message:       msgPending,
	}
}

func errorMessage(msg string) *string {
	return &msg
}
