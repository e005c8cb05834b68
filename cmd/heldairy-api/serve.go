package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/JonnyWalker81/heldairy/backend/internal/handlers"
	"github.com/JonnyWalker81/heldairy/backend/internal/logger"
	"github.com/JonnyWalker81/heldairy/backend/internal/middleware"
	"github.com/JonnyWalker81/heldairy/backend/internal/telemetry"
	"github.com/JonnyWalker81/heldairy/backend/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and the background weekly insight and retention jobs.`,
	RunE:  runServe,
}

var (
	port       string
	skipWorker bool
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&skipWorker, "no-worker", false, "Do not run background jobs in this process")
}

// Requests per minute per user on endpoints that may call the remote service
const aiRequestsPerMinute = 10

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, nil)
	if err != nil {
		return err
	}
	cfg := a.cfg
	if port != "" {
		cfg.Server.Port = port
	}
	log := a.log

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var verifier middleware.TokenVerifier
	switch cfg.Auth.Mode {
	case "supabase":
		verifier = middleware.NewSupabaseVerifier(a.supabase)
	default:
		verifier = middleware.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	}

	aiLimiter := middleware.NewRateLimiter(aiRequestsPerMinute, time.Minute, "ai")
	defer aiLimiter.Close()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"env":     cfg.Server.Env,
			"version": version,
		})
	})
	if h := telemetry.MetricsHandler(); h != nil {
		router.GET("/metrics", gin.WrapH(h))
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(verifier))
	handlers.Handlers{
		Entries:  handlers.NewEntryHandler(a.entries, a.summaries),
		Advice:   handlers.NewAdviceHandler(a.advice, a.tracking),
		Insights: handlers.NewInsightsHandler(a.weekly, a.insights),
	}.Register(api, aiLimiter.Middleware())

	var jobs sync.WaitGroup
	if cfg.Worker.WeeklyEnabled && !skipWorker {
		startJobs(ctx, a, &jobs)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			jobs.Wait()
			a.close(context.Background())
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", logger.Err(err))
	}
	jobs.Wait()
	a.close(shutdownCtx)
	return nil
}

// startJobs runs the weekly scheduler and the retention cleaner until ctx is done
func startJobs(ctx context.Context, a *app, jobs *sync.WaitGroup) {
	wc := a.workerConfig()
	scheduler := worker.NewWeeklyScheduler(wc, a.store.Entries, a.store.Insights, a.weekly, a.settings)
	cleaner := worker.NewRetentionCleaner(wc, a.store.Entries, a.store.Insights)

	jobs.Add(2)
	go func() {
		defer jobs.Done()
		worker.Every(ctx, "weekly_insights", wc.Interval, func(ctx context.Context) error {
			_, err := scheduler.RunOnce(ctx)
			return err
		})
	}()
	go func() {
		defer jobs.Done()
		worker.Every(ctx, "insight_retention", 24*time.Hour, func(ctx context.Context) error {
			_, err := cleaner.RunOnce(ctx)
			return err
		})
	}()
}
