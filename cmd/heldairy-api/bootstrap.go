package main

import (
	"context"
	"fmt"

	"github.com/JonnyWalker81/heldairy/backend/internal/config"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository/badgerstore"
	"github.com/JonnyWalker81/heldairy/backend/internal/repository/pgstore"
	"github.com/JonnyWalker81/heldairy/backend/internal/rules"
	"github.com/JonnyWalker81/heldairy/backend/internal/service"
	"github.com/JonnyWalker81/heldairy/backend/internal/telemetry"
	"github.com/JonnyWalker81/heldairy/backend/internal/worker"
	"github.com/JonnyWalker81/heldairy/backend/pkg/deepseek"
	"github.com/JonnyWalker81/heldairy/backend/pkg/supabase"
)

// app holds everything the commands share
type app struct {
	cfg      *config.Config
	log      logger.Logger
	store    *repository.Store
	supabase *supabase.Client
	settings service.SettingsProvider

	entries   service.EntryService
	summaries service.SummaryService
	tracking  service.TrackingService
	advice    service.AdviceService
	insights  service.InsightService
	weekly    service.WeeklyInsightService

	shutdownTelemetry func(context.Context) error
}

// bootstrap loads configuration and wires storage and services. client
// overrides the remote advice client when non-nil.
func bootstrap(ctx context.Context, client service.AdviceClient) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewSlogLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})
	logger.SetDefault(log)

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.MetricsEnabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a := &app{cfg: cfg, log: log, shutdownTelemetry: shutdown}
	if cfg.Storage.SupabaseURL != "" {
		a.supabase = supabase.NewClient(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseServiceKey)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	a.store = store

	a.settings = service.SettingsFunc(func(context.Context) (service.AISettings, error) {
		key, err := cfg.AI.APIKey.Reveal()
		if err != nil {
			return service.AISettings{}, fmt.Errorf("failed to open api key: %w", err)
		}
		return service.AISettings{Enabled: cfg.AI.Enabled, APIKey: key}, nil
	})

	if client == nil {
		client = deepseek.NewClient(deepseek.Config{
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		}, log.With(logger.String("component", "deepseek")))
	}
	a.wireServices(client)

	log.Info("application initialized",
		logger.String("env", cfg.Server.Env),
		logger.String("storage", cfg.Storage.Driver),
		logger.Bool("ai_enabled", cfg.AI.Enabled),
		logger.Bool("ai_key_set", cfg.AI.APIKey.IsSet()),
		logger.String("model", client.Model()),
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (*repository.Store, error) {
	switch a.cfg.Storage.Driver {
	case "postgres":
		pool, err := pgstore.Open(ctx, a.cfg.Storage.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return pgstore.NewStore(pool), nil
	case "supabase":
		return repository.NewSupabaseStore(a.supabase), nil
	default:
		bcfg := badgerstore.DefaultConfig(a.cfg.Storage.BadgerPath)
		if a.cfg.Storage.InMemory {
			bcfg = badgerstore.InMemoryConfig()
		}
		db, err := badgerstore.Open(bcfg, a.log.With(logger.String("component", "badger")))
		if err != nil {
			return nil, err
		}
		return badgerstore.NewStore(db), nil
	}
}

func (a *app) wireServices(client service.AdviceClient) {
	a.entries = service.NewEntryService(a.store.Entries)
	a.summaries = service.NewSummaryService(a.store.Entries, a.store.Summaries)
	a.tracking = service.NewTrackingService(a.store.Tracking)
	a.insights = service.NewInsightService(a.store.Entries)
	a.advice = service.NewAdviceService(service.AdviceDeps{
		Entries:   a.store.Entries,
		Advice:    a.store.Advice,
		Summaries: a.summaries,
		Tracking:  a.tracking,
		Engine:    rules.NewEngine(rules.DefaultRules()),
		Client:    client,
		Settings:  a.settings,
		Policy:    service.RetryPolicy{MaxAttempts: a.cfg.AI.MaxAttempts},
	})
	a.weekly = service.NewWeeklyInsightService(a.store.Entries, a.store.Insights, client, a.settings, a.cfg.Worker.Location())
}

func (a *app) workerConfig() worker.Config {
	wc := worker.DefaultConfig()
	wc.Interval = a.cfg.Worker.Interval
	wc.MaxTries = a.cfg.Worker.MaxTries
	wc.Concurrency = a.cfg.Worker.Concurrency
	wc.Location = a.cfg.Worker.Location()
	wc.RetentionDays = a.cfg.Worker.RetentionDays
	return wc
}

// close waits for background refreshes, then releases storage and telemetry
func (a *app) close(ctx context.Context) {
	a.weekly.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close storage", logger.Err(err))
	}
	if err := a.shutdownTelemetry(ctx); err != nil {
		a.log.Warn("failed to shut down telemetry", logger.Err(err))
	}
	a.cfg.AI.APIKey.Destroy()
}
