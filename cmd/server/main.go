// Package main is the entrypoint for the TrendScout API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/trendscout/trendscout/internal/agent"
	"github.com/trendscout/trendscout/internal/api"
	"github.com/trendscout/trendscout/internal/api/handler"
	mw "github.com/trendscout/trendscout/internal/api/middleware"
	"github.com/trendscout/trendscout/internal/cache"
	"github.com/trendscout/trendscout/internal/config"
	"github.com/trendscout/trendscout/internal/notify"
	"github.com/trendscout/trendscout/internal/search"
	"github.com/trendscout/trendscout/internal/store"
	"github.com/trendscout/trendscout/internal/trends"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "agent_configured", cfg.Agent.BaseURL != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create change-event publisher
	publisher, err := notify.NewPublisher(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	defer publisher.Close()

	// 6. Create trend agent client. Without a configured URL the server runs
	// degraded: searches are recorded locally, the time machine serves
	// generated data.
	var agentClient agent.Client
	if cfg.Agent.BaseURL != "" {
		agentClient = agent.NewHTTPClient(cfg.Agent.BaseURL, cfg.Agent.Timeout)
		slog.Info("trend agent configured", "url", cfg.Agent.BaseURL)
	} else {
		agentClient = agent.Disabled{}
		slog.Warn("no trend agent configured, running degraded")
	}

	// 7. Create store and services
	pgStore := store.NewPostgresStore(pool)
	searchSvc := search.NewService(pgStore, redisCache, agentClient, publisher, logger)
	trendsSvc := trends.NewService(agentClient, redisCache, logger)

	// 8. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler:       handler.NewHealthHandler(pgStore, redisCache),
		CreateSearchHandler: handler.NewCreateSearchHandler(searchSvc),
		GetSearchHandler:    handler.NewGetSearchHandler(searchSvc),
		HistoryHandler:      handler.NewHistoryHandler(searchSvc),
		DeleteSearchHandler: handler.NewDeleteSearchHandler(searchSvc),
		TimeMachineHandler:  handler.NewTimeMachineHandler(trendsSvc),
		CreateKeyHandler:    handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:     handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler:    handler.NewRevokeKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
