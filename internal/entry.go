// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/loggbok/internal/api"
	"github.com/starford/loggbok/internal/apperr"
	"github.com/starford/loggbok/internal/mcpserver"
	"github.com/starford/loggbok/internal/scheduler"
	"github.com/starford/loggbok/internal/settings"
	"github.com/starford/loggbok/internal/sse"
	"github.com/starford/loggbok/internal/things"
	"github.com/starford/loggbok/internal/vault"
)

// platformSupported reports whether a live Things logbook can exist
// here. Things only runs on macOS.
func platformSupported() bool {
	return runtime.GOOS == "darwin"
}

// deps bundles everything the sync engine needs at runtime.
type deps struct {
	store   vault.Provider
	notes   *vault.DailyNotes
	logbook *things.DB
	cfg     *settings.Store
}

func (d *deps) close() {
	if d.logbook != nil {
		_ = d.logbook.Close()
	}
}

// buildDeps initializes the vault, the logbook connection, and the
// settings store from configuration.
func buildDeps(cfg *Config) (*deps, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}
	notes := vault.NewDailyNotes(store, cfg.Vault.DailyFolder, cfg.Vault.DateFormat)

	logbook, err := things.Open(cfg.Logbook.Path)
	if err != nil {
		return nil, fmt.Errorf("open logbook: %w", err)
	}

	settingsStore, err := settings.Open(cfg.State.Path)
	if err != nil {
		logbook.Close()
		return nil, fmt.Errorf("open settings: %w", err)
	}

	return &deps{store: store, notes: notes, logbook: logbook, cfg: settingsStore}, nil
}

// newLogger builds the process-wide structured JSON logger.
func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the daemon with the given options and blocks until
// shutdown. On an unsupported platform without the override flag the
// daemon logs and exits cleanly without registering anything.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("logbook_path", cfg.Logbook.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if !platformSupported() && !cfg.Logbook.AllowUnsupportedOS {
		logger.Warn("Things logbook requires macOS; nothing to do on this platform")
		return nil
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer d.close()

	broker := sse.NewBroker()
	defer broker.Close()

	sched := scheduler.New(scheduler.Options{
		Source:   d.logbook,
		Notes:    d.notes,
		Vault:    d.store,
		Settings: d.cfg,
		Notifier: broker,
		Logger:   logger,
	})

	apiRouter := api.NewRouter(sched, d.cfg, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Sync scheduler loop.
	g.Go(func() error {
		return sched.Run(gCtx)
	})

	// Logbook watcher: sync shortly after Things writes.
	if cfg.Logbook.Watch {
		g.Go(func() error {
			if err := things.Watch(gCtx, cfg.Logbook.Path, 2*time.Second, logger, sched.TriggerNow); err != nil {
				logger.Warn("logbook watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunOnce executes a single sync cycle and exits. Unlike the daemon,
// an unsupported platform is a hard error here: the user explicitly
// asked for a sync.
func RunOnce(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg)

	if !platformSupported() && !cfg.Logbook.AllowUnsupportedOS {
		return apperr.ErrUnsupportedPlatform
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer d.close()

	sched := scheduler.New(scheduler.Options{
		Source:   d.logbook,
		Notes:    d.notes,
		Vault:    d.store,
		Settings: d.cfg,
		Logger:   logger,
	})

	result, err := sched.RunOnce(ctx)
	if err != nil {
		return err
	}
	logger.Info("Sync complete",
		slog.Int("days", result.Days),
		slog.Int("tasks", result.Tasks))
	return nil
}

// RunMCP serves the MCP tools on stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	if !platformSupported() && !cfg.Logbook.AllowUnsupportedOS {
		return apperr.ErrUnsupportedPlatform
	}

	d, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer d.close()

	sched := scheduler.New(scheduler.Options{
		Source:   d.logbook,
		Notes:    d.notes,
		Vault:    d.store,
		Settings: d.cfg,
	})

	srv := mcpserver.New(sched, d.notes, d.store)
	return srv.ServeStdio()
}
