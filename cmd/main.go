// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusconnect/events-api/internal/config"
	"github.com/campusconnect/events-api/internal/database"
	"github.com/campusconnect/events-api/internal/handler"
	"github.com/campusconnect/events-api/internal/repository"
	"github.com/campusconnect/events-api/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Env)

	// ── 1. Open the store ─────────────────────────────────────────────────
	var (
		events repository.EventStore
		regs   repository.RegistrationStore
	)
	switch cfg.Store {
	case "memory":
		store := repository.NewMemoryStore()
		events, regs = store, store
		slog.Warn("using in-memory store; data will not survive a restart")
	default:
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := database.Migrate(cfg.Database); err != nil {
			slog.Error("migrate", "error", err)
			os.Exit(1)
		}
		events = repository.NewEventRepository(pool)
		regs = repository.NewRegistrationRepository(pool)
		slog.Info("connected to postgres", "host", cfg.Database.Host, "db", cfg.Database.Name)
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventSvc := service.NewEventService(events)
	regSvc := service.NewRegistrationService(events, regs)
	eventHandler := handler.NewEventHandler(eventSvc)
	regHandler := handler.NewRegistrationHandler(regSvc)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := handler.NewRouter(eventHandler, regHandler, []byte(cfg.JWTSecret))

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		slog.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// setupLogger installs the default slog handler: JSON in production,
// text elsewhere.
func setupLogger(env string) {
	var h slog.Handler
	if env == "production" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}
