package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/civicdesk/backend/internal/ai"
	"github.com/civicdesk/backend/internal/cache"
	"github.com/civicdesk/backend/internal/config"
	"github.com/civicdesk/backend/internal/dashboard"
	"github.com/civicdesk/backend/internal/db"
	httpapi "github.com/civicdesk/backend/internal/http"
	"github.com/civicdesk/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "civicdesk-backend").Logger()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	summaryCache, err := cache.New(ctx, cfg.RedisAddr, cfg.SummaryCacheTTL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, dashboard cache disabled")
		summaryCache = &cache.SummaryCache{TTL: cfg.SummaryCacheTTL}
	}
	defer summaryCache.Close()

	var classifier ai.Classifier
	if cfg.GeminiAPIKey == "" {
		classifier = ai.MockClassifier{ModelVersion: "mock-v1"}
		logger.Info().Msg("no GEMINI_API_KEY, using mock classifier")
	} else {
		gemini, err := ai.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AITimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init gemini classifier")
		}
		classifier = gemini
	}

	intake := &service.IntakeService{Store: store, Logger: logger}
	processor := &service.ProcessingService{
		Store:      store,
		Classifier: classifier,
		Fallback:   ai.MockClassifier{ModelVersion: "fallback-v1"},
		Logger:     logger,
	}
	escalations := &service.EscalationService{Store: store, Logger: logger}

	grid := dashboard.NewPressureGrid(cfg.GridTick)
	go grid.Run(ctx)

	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := escalations.Sweep(ctx, time.Now().UTC()); err != nil {
					logger.Error().Err(err).Msg("escalation sweep failed")
				}
				if overdue, err := store.CountOverdue(ctx, time.Now().UTC()); err == nil {
					grid.SetLoad(overdue)
				}
			}
		}
	}()

	router := httpapi.Router(cfg, store, intake, processor, escalations, grid, summaryCache, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
