package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonnyWalker81/heldairy/backend/internal/analysis"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/models"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
	"github.com/JonnyWalker81/heldairy/backend/internal/rules"
	"github.com/JonnyWalker81/heldairy/backend/internal/telemetry"
)

const (
	// LocalModel is stored as the model of rule-generated advice
	LocalModel = "local"

	// enhancedLoadLimit covers the analysed week and the week before it
	enhancedLoadLimit = 14
)

// AdviceDeps groups the collaborators of the advice coordinator
type AdviceDeps struct {
	Entries   repository.EntryRepository
	Advice    repository.AdviceRepository
	Summaries SummaryService
	Tracking  TrackingService
	Engine    *rules.Engine
	Client    AdviceClient
	Settings  SettingsProvider
	Policy    RetryPolicy
}

type adviceService struct {
	entries   repository.EntryRepository
	advice    repository.AdviceRepository
	summaries SummaryService
	tracking  TrackingService
	engine    *rules.Engine
	client    AdviceClient
	settings  SettingsProvider
	policy    RetryPolicy
	now       func() time.Time
}

// NewAdviceService creates the advice coordinator. A zero Policy uses DefaultRetryPolicy.
func NewAdviceService(deps AdviceDeps) AdviceService {
	policy := deps.Policy
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	engine := deps.Engine
	if engine == nil {
		engine = rules.NewEngine(rules.DefaultRules())
	}
	return &adviceService{
		entries:   deps.Entries,
		advice:    deps.Advice,
		summaries: deps.Summaries,
		tracking:  deps.Tracking,
		engine:    engine,
		client:    deps.Client,
		settings:  deps.Settings,
		policy:    policy,
		now:       time.Now,
	}
}

func (s *adviceService) GetForEntry(ctx context.Context, userID, entryID string) (*models.AdviceRecord, error) {
	return s.advice.GetByEntryID(ctx, userID, entryID)
}

// GenerateForEntry produces advice for an entry: local rules first, then the
// remote service with bounded retries, then the fixed fallback. Configuration
// errors are returned before any remote call.
func (s *adviceService) GenerateForEntry(ctx context.Context, userID, entryID string) (*models.AdviceRecord, error) {
	ctx = logger.WithEntryID(ctx, entryID)
	log := logger.Ctx(ctx)

	entry, err := s.entries.GetByID(ctx, userID, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	summary := &models.DailySummaryPayload{}
	if record, err := s.summaries.RegenerateForEntry(ctx, userID, entryID); err != nil {
		log.Warn("daily summary unavailable, continuing without it", logger.Err(err))
	} else if record != nil {
		payload := record.Payload()
		summary = &payload
	}

	if generated, ok := s.engine.Evaluate(entry, summary.Window7).(rules.Generated); ok {
		log.Info("local rule matched", logger.String("rule_id", generated.RuleID))
		record := &models.AdviceRecord{
			UserID:      userID,
			EntryID:     entry.ID,
			EntryDate:   entry.EntryDate,
			Model:       LocalModel,
			Advice:      generated.Payload,
			PromptHash:  localRuleHash(generated.RuleID),
			RuleID:      generated.RuleID,
			GeneratedAt: s.now().UTC(),
		}
		return s.persist(ctx, entry, record)
	}

	settings, err := s.settings.CurrentSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read AI settings: %w", err)
	}
	if err := settings.Check(); err != nil {
		return nil, err
	}

	prompt := s.buildPrompt(ctx, userID, entry, summary)
	payload, err := s.fetchWithRetry(ctx, settings.APIKey, prompt)
	if err != nil {
		return nil, err
	}

	record := &models.AdviceRecord{
		UserID:      userID,
		EntryID:     entry.ID,
		EntryDate:   entry.EntryDate,
		Model:       s.client.Model(),
		Advice:      payload,
		PromptHash:  HashPrompt(prompt),
		GeneratedAt: s.now().UTC(),
	}
	return s.persist(ctx, entry, record)
}

// buildPrompt prefers the enhanced prompt and falls back to the basic one when
// the week has too few entries or history cannot be loaded
func (s *adviceService) buildPrompt(ctx context.Context, userID string, entry *models.DailyEntry, summary *models.DailySummaryPayload) string {
	day, err := models.ParseDate(entry.EntryDate)
	if err != nil {
		return BuildBasicPrompt(entry, summary)
	}

	var (
		recent        []models.DailyEntry
		effectiveness *models.EffectivenessSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.entries.ListRecent(gctx, userID, enhancedLoadLimit)
		if err != nil {
			return fmt.Errorf("failed to load recent entries: %w", err)
		}
		recent = entriesUpTo(entries, entry.EntryDate)
		return nil
	})
	g.Go(func() error {
		summary, err := s.tracking.Effectiveness(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load advice effectiveness: %w", err)
		}
		effectiveness = summary
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Ctx(ctx).Warn("using basic prompt", logger.Err(err))
		return BuildBasicPrompt(entry, summary)
	}

	enhanced := analysis.BuildEnhancedWeeklySummary(recent, day)
	if enhanced == nil {
		return BuildBasicPrompt(entry, summary)
	}
	return BuildEnhancedPrompt(entry, enhanced, effectiveness)
}

func (s *adviceService) fetchWithRetry(ctx context.Context, apiKey, prompt string) (models.AdvicePayload, error) {
	log := logger.Ctx(ctx)

	for attempt := 1; ; attempt++ {
		start := time.Now()
		raw, err := s.client.FetchAdvice(ctx, apiKey, adviceSystemPrompt, prompt)
		if isCancellation(ctx, err) {
			return models.AdvicePayload{}, ctx.Err()
		}

		payload, outcome := classifyAdvice(raw, err)
		decision := s.policy.Decide(attempt, outcome)
		telemetry.RecordAIAttempt(ctx, "advice", outcome.String(), time.Since(start))

		fields := []logger.Field{
			logger.Int("attempt", attempt),
			logger.String("outcome", outcome.String()),
			logger.String("decision", decision.String()),
		}
		if err != nil {
			fields = append(fields, logger.Err(err))
		}
		if outcome == OutcomeInvalid {
			fields = append(fields, logger.Strings("issues", payload.ValidationErrors()))
		}
		log.Info("advice attempt finished", fields...)

		switch decision {
		case DecisionAccept:
			payload.Source = models.AdviceSourceAI
			return payload, nil
		case DecisionRetry:
			if err := ctx.Err(); err != nil {
				return models.AdvicePayload{}, err
			}
			continue
		default:
			fallback := models.AdvicePayload{}.WithFallbackIfEmpty()
			return *fallback, nil
		}
	}
}

// persist stores the record and its tracking items. The write is detached
// from ctx so a finished generation is not lost to a client disconnect.
func (s *adviceService) persist(ctx context.Context, entry *models.DailyEntry, record *models.AdviceRecord) (*models.AdviceRecord, error) {
	store := context.WithoutCancel(ctx)
	if err := s.advice.Save(store, record); err != nil {
		return nil, fmt.Errorf("failed to save advice: %w", err)
	}

	if _, err := s.tracking.SaveFromAdvice(store, record.UserID, entry.ID, entry.EntryDate, record.Advice); err != nil {
		logger.Ctx(ctx).Warn("failed to save advice tracking", logger.Err(err))
	}

	source := record.Advice.Source
	if source == "" {
		source = models.AdviceSourceAI
	}
	telemetry.RecordAdvice(ctx, string(source))
	logger.Ctx(ctx).Info("advice saved",
		logger.String("source", string(source)),
		logger.String("model", record.Model),
	)
	return record, nil
}
