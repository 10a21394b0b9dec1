// profiledesk - dialogue webhook for LinkedIn profile lookups
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

	"github.com/ashureev/profiledesk/internal/api"
	"github.com/ashureev/profiledesk/internal/config"
	"github.com/ashureev/profiledesk/internal/dialog"
	"github.com/ashureev/profiledesk/internal/enrichment"
	"github.com/ashureev/profiledesk/internal/health"
	"github.com/ashureev/profiledesk/internal/jobs"
	"github.com/ashureev/profiledesk/internal/middleware"
	"github.com/ashureev/profiledesk/internal/resolve"
	"github.com/ashureev/profiledesk/internal/store"
	"github.com/ashureev/profiledesk/internal/summarize"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
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

	slog.Info("Starting server", "port", cfg.Port, "slot_store", cfg.Slots.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	slots, err := openSlotStore(cfg.Slots)
	if err != nil {
		slog.Error("Failed to initialize slot store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := slots.Close(); closeErr != nil {
			slog.Error("Failed to close slot store", "error", closeErr)
		}
	}()

	if err := slots.Ping(ctx); err != nil {
		slog.Error("Slot store health check failed", "error", err)
		os.Exit(1)
	}

	client, err := enrichment.NewClient(enrichment.Config{
		BaseURL:  cfg.Enrichment.BaseURL,
		APIToken: cfg.Enrichment.APIToken,
		Timeout:  cfg.Enrichment.Timeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize enrichment client", "error", err)
		os.Exit(1)
	}

	summarizer, err := summarize.New(ctx, summarize.Config{
		Model:    cfg.GenAI.Model,
		APIKey:   cfg.GenAI.APIKey,
		Project:  cfg.GenAI.Project,
		Location: cfg.GenAI.Location,
		BaseURL:  cfg.GenAI.BaseURL,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize summarizer", "error", err)
		os.Exit(1)
	}

	// Initialize services.
	chain := resolve.NewChain(client, logger)
	dispatcher := jobs.NewDispatcher(slots, jobs.Config{
		Timeout:        cfg.Jobs.Timeout,
		MaxConcurrency: cfg.Jobs.MaxConcurrency,
		Describe:       api.UserMessage,
	}, logger)

	webhook := api.NewWebhook(api.Deps{
		Jobs:     dispatcher,
		Slots:    slots,
		Work:     jobs.NewRunner(client, chain, summarizer, logger),
		Chain:    chain,
		Contexts: dialog.NewPropagator(cfg.ContextLifespan),
	}, logger)

	jobs.StartSweeper(ctx, slots, dispatcher.SweepConfig(cfg.Slots.SweepInterval, cfg.Slots.Retention))

	var healthSrv *health.Server
	if cfg.GRPCHealthPort != "" {
		healthSrv = health.NewServer(logger)
		if _, err := healthSrv.Start(":" + cfg.GRPCHealthPort); err != nil {
			slog.Error("Failed to start health server", "error", err)
			os.Exit(1)
		}
		healthSrv.Watch(ctx, 30*time.Second, slots.Ping)
	}

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.BodyLimit(middleware.DefaultMaxBodyBytes))

	webhook.RegisterRoutes(r)

	// The platform expects a reply within seconds; slow work runs as jobs.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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

	if healthSrv != nil {
		healthSrv.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		slog.Error("Background jobs did not finish", "error", err)
	}

	slog.Info("Server stopped successfully")
}

func openSlotStore(cfg config.SlotConfig) (store.SlotStore, error) {
	if cfg.Backend == config.StoreSQLite {
		st, err := store.NewSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return store.NewMemory(), nil
}
