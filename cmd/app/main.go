// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legal-letter-ai/internal/config"
	"legal-letter-ai/internal/domain/ports/adapter"
	aiAdapters "legal-letter-ai/internal/infra/adapters/ai"
	pg "legal-letter-ai/internal/infra/db/postgres"
	"legal-letter-ai/internal/infra/logging"
	"legal-letter-ai/internal/infra/metrics"
	red "legal-letter-ai/internal/infra/redis"
	"legal-letter-ai/internal/infra/sched"
	"legal-letter-ai/internal/infra/web"
	"legal-letter-ai/internal/infra/worker"
	"legal-letter-ai/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop AI fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis queue store ----
	redisClient := red.NewClient(&cfg.Redis)
	defer redisClient.Close()
	queue := red.NewQueueStore(redisClient, logger)
	go queue.Run(ctx)

	// ---- Repositories ----
	letterRepo := pg.NewLetterRepo(pool)
	documentRepo := pg.NewDocumentRepo(pool)
	templateRepo := pg.NewTemplateRepo(pool)
	versionRepo := pg.NewVersionRepo(pool)
	usageRepo := pg.NewUsageRepo(pool)

	// ---- AI Adapter (OpenAI -> Gemini -> noop in dev) ----
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.Model).Msg("AI adapter: OpenAI")
	case cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.AI.Model).Msg("AI adapter: Gemini")
	case cfg.Runtime.Dev:
		ai = aiAdapters.NewNoopAdapter()
		logger.Warn().Msg("AI adapter: noop (dev mode, no provider key set)")
	default:
		logger.Fatal().Msgf("no AI provider configured: set ai.openai_key or ai.gemini_key in %s", *cfgPath)
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	orch := usecase.NewOrchestrator(
		letterRepo, documentRepo, templateRepo, versionRepo, usageRepo, ai,
		usecase.GenerationConfig{
			Model:       cfg.AI.Model,
			Timeout:     time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
			MaxAttempts: cfg.AI.MaxAttempts,
			Backoff: usecase.Backoff{
				Base: time.Duration(cfg.AI.BackoffBaseMS) * time.Millisecond,
				Cap:  time.Duration(cfg.AI.BackoffCapMS) * time.Millisecond,
			},
			InputTokenLimit:    cfg.AI.InputTokenLimit,
			InputPricePerMTok:  cfg.AI.InputPricePerMTok,
			OutputPricePerMTok: cfg.AI.OutputPricePerMTok,
		},
		logger,
	)
	genUC := usecase.NewGenerationUseCase(letterRepo, queue, cfg.Queue.Name, logger)

	// ---- Workers ----
	scheduler := worker.NewScheduler(queue, orch, cfg.Queue.Name, cfg.Queue.Concurrency, cfg.Queue.PollInterval, logger)
	go func() { _ = scheduler.Run(ctx) }()

	retention := sched.NewRetentionWorker(cfg.Queue.RetentionInterval, queue, cfg.Queue.Name, cfg.Queue.KeepCompleted, cfg.KeepFailed(), logger)
	go func() { _ = retention.Run(ctx) }()

	// ---- HTTP API ----
	auth := web.NewAuthManager(cfg.Security.JWTSecret, 8*time.Hour)
	srv := web.NewServer(genUC, auth, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
