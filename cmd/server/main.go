// Heartline - SMS crisis support companion server
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

	"github.com/heartlinehq/heartline/internal/api"
	"github.com/heartlinehq/heartline/internal/cache"
	"github.com/heartlinehq/heartline/internal/checkin"
	"github.com/heartlinehq/heartline/internal/config"
	"github.com/heartlinehq/heartline/internal/conversation"
	"github.com/heartlinehq/heartline/internal/llm"
	"github.com/heartlinehq/heartline/internal/middleware"
	"github.com/heartlinehq/heartline/internal/risk"
	"github.com/heartlinehq/heartline/internal/session"
	"github.com/heartlinehq/heartline/internal/sms"
	"github.com/heartlinehq/heartline/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port)

	// Risk lexicon: shipped defaults unless an override file is configured.
	lex := risk.DefaultLexicon()
	if cfg.RiskLexiconPath != "" {
		lex, err = risk.LoadLexicon(cfg.RiskLexiconPath)
		if err != nil {
			slog.Error("Failed to load risk lexicon", "path", cfg.RiskLexiconPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Risk lexicon loaded from file", "path", cfg.RiskLexiconPath)
	}

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// The cache is optional: when it is absent or unreachable, sessions run
	// on the in-process fallback table.
	var kv session.KV
	var cachePinger api.Pinger
	if cfg.Redis.Addr != "" {
		cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() {
			if closeErr := cacheClient.Close(); closeErr != nil {
				slog.Error("Failed to close cache client", "error", closeErr)
			}
		}()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := cacheClient.Ping(pingCtx); err != nil {
			slog.Warn("Cache unreachable, sessions will use the fallback tier",
				"addr", cfg.Redis.Addr, "error", err)
		} else {
			slog.Info("Cache connected", "addr", cfg.Redis.Addr)
		}
		cancel()

		kv = cacheClient
		cachePinger = cacheClient
	} else {
		slog.Info("Cache not configured, sessions will use the fallback tier")
	}

	// The generator is optional: without it every reply is fixed text.
	var generator conversation.Generator
	if cfg.LLM.APIKey != "" {
		generator = llm.New(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
		slog.Info("Reply generator enabled", "model", cfg.LLM.Model)
	} else {
		slog.Info("Reply generator disabled (LLM_API_KEY not set), using fallback responses")
	}

	smsClient := sms.NewClient(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber, cfg.SMS.BaseURL)

	// Initialize services.
	sessions := session.New(kv, repo, cfg.Session.CacheTTL, cfg.Session.IdleTTL)
	orch := conversation.New(sessions, repo, risk.NewAssessor(lex), generator, smsClient, cfg.MaxMessageLen)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, sessions)
	webhookHandler := api.NewWebhookHandler(baseHandler, orch)
	statusHandler := api.NewStatusHandler(baseHandler, cachePinger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	statusHandler.RegisterRoutes(r)

	// Signature validation scopes to the webhook subtree only.
	r.Group(func(r chi.Router) {
		if cfg.SMS.ValidateSignatures {
			r.Use(middleware.ValidateSignature(cfg.SMS.AuthToken, cfg.SMS.PublicURL))
			slog.Info("Webhook signature validation enabled", "public_url", cfg.SMS.PublicURL)
		}
		webhookHandler.RegisterRoutes(r)
	})

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start background workers.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartSweeper(ctx, sessions, cfg.Session.CleanupInterval)
	checkin.StartWorker(ctx, repo, sessions, smsClient, cfg.CheckIn.Interval, cfg.CheckIn.Delay)

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
