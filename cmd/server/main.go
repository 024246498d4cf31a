// twentyq - twenty questions game server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ashureev/twentyq/internal/api"
	"github.com/ashureev/twentyq/internal/config"
	"github.com/ashureev/twentyq/internal/enrich"
	"github.com/ashureev/twentyq/internal/game"
	"github.com/ashureev/twentyq/internal/learning"
	"github.com/ashureev/twentyq/internal/llm"
	"github.com/ashureev/twentyq/internal/middleware"
	"github.com/ashureev/twentyq/internal/session"
	"github.com/ashureev/twentyq/internal/store"
	"github.com/ashureev/twentyq/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "llm_provider", cfg.LLM.Provider, "session_store", cfg.Session.Store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	client, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		slog.Error("Failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	sessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	recorder, err := newRecorder(cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize learning log", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := recorder.Close(); closeErr != nil {
			slog.Error("Failed to close learning log", "error", closeErr)
		}
	}()

	enricher := enrich.NewClient(
		enrich.NewWikipediaSource(cfg.Enrich.BaseURL, cfg.Enrich.UserAgent, cfg.Enrich.Timeout),
		cfg.Enrich.Timeout,
	)

	svc := game.NewService(sessions, client, enricher, recorder, game.Config{
		GuessMinQuestions: cfg.Game.GuessMinQuestions,
		GuessMaxQuestions: cfg.Game.GuessMaxQuestions,
		GuessConfidence:   cfg.Game.GuessConfidence,
		HistoryWindow:     cfg.Game.HistoryWindow,
		DuplicateRetries:  cfg.Game.DuplicateRetries,
		Temperature:       float32(cfg.LLM.Temperature),
		RetryTemperature:  float32(cfg.LLM.RetryTemperature),
		StartMaxTokens:    cfg.LLM.StartMaxTokens,
		MaxTokens:         cfg.LLM.MaxTokens,
	})
	gameHandler := api.NewHandler(svc, cfg.MaxRequestBodyBytes)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration)
	defer limiter.Stop()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	gameHandler.RegisterRoutes(r, middleware.RateLimit(limiter))
	r.Handle("/metrics", promhttp.Handler())

	// Serve the browser client (SPA catch-all).
	if cfg.StaticDir != "" {
		r.Handle("/*", web.StaticHandler(cfg.StaticDir))
	}

	// WriteTimeout covers one LLM call per duplicate retry.
	writeTimeout := cfg.LLM.Timeout*time.Duration(cfg.Game.DuplicateRetries+1) + 10*time.Second
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// newSessionStore builds the configured backend. The memory store gets a
// TTL sweeper bound to ctx; Redis expires keys itself.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Session.Store == config.SessionStoreRedis {
		s, err := session.NewRedisStore(ctx, cfg.Session.RedisURL, cfg.Session.TTL)
		if err != nil {
			return nil, err
		}
		slog.Info("Redis session store connected", "ttl", cfg.Session.TTL)
		return s, nil
	}

	s := session.NewMemoryStore(session.MemoryOptions{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
	})
	session.StartSweeper(ctx, s, cfg.Session.SweepInterval)
	slog.Info("Memory session store ready", "ttl", cfg.Session.TTL, "max_sessions", cfg.Session.MaxSessions)
	return s, nil
}

// newRecorder opens the learning log sinks: the sqlite repository and the
// NDJSON file, whichever are configured.
func newRecorder(cfg *config.Config, logger *slog.Logger) (learning.Recorder, error) {
	if !cfg.Learning.Enabled {
		slog.Info("Learning log disabled")
		return learning.Noop(), nil
	}

	var sinks []learning.Sink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	if cfg.Learning.DBPath != "" {
		repo, err := store.NewSQLite(cfg.Learning.DBPath)
		if err != nil {
			return nil, err
		}
		if err := repo.Ping(context.Background()); err != nil {
			_ = repo.Close()
			return nil, err
		}
		sinks = append(sinks, learning.NewRepositorySink(repo))
		slog.Info("Learning database connected", "path", cfg.Learning.DBPath)
	}
	if cfg.Learning.LogPath != "" {
		file, err := learning.NewFileSink(cfg.Learning.LogPath)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, file)
	}

	rec, err := learning.NewRecorder(learning.Config{Enabled: true, QueueSize: cfg.Learning.QueueSize}, logger, sinks...)
	if err != nil {
		closeAll()
		return nil, err
	}
	return rec, nil
}
