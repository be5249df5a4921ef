// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/chronogrid/internal/api"
	"github.com/starford/chronogrid/internal/catalog"
	"github.com/starford/chronogrid/internal/gallery"
	"github.com/starford/chronogrid/internal/mcpserver"
	"github.com/starford/chronogrid/internal/sse"
	"github.com/starford/chronogrid/internal/storage"
)

const libraryEventThrottle = 2 * time.Second

// runtime is the state shared by every command.
type runtime struct {
	cfg       *Config
	logger    *slog.Logger
	libraries map[string]storage.Provider
	db        *catalog.DB
}

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// setup opens the libraries and the catalog and brings the catalog up to
// date. logOut receives the structured log.
func setup(cfg *Config, logOut io.Writer) (*runtime, error) {
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("source_path", cfg.Library.Source.Path),
		slog.String("destination_path", cfg.Library.Destination.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	libraries := make(map[string]storage.Provider, len(gallery.Panes()))
	for pane, path := range cfg.Library.Paths() {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create %s library dir: %w", pane, err)
		}
		store, err := storage.NewFS(path, cfg.Library.Extensions)
		if err != nil {
			return nil, fmt.Errorf("init %s storage: %w", pane, err)
		}
		libraries[pane] = store
	}

	db, err := catalog.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	for _, pane := range gallery.Panes() {
		if _, err := catalog.Sync(db, libraries[pane], pane, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("pane", pane), slog.String("error", err.Error()))
		}
	}

	return &runtime{cfg: cfg, logger: logger, libraries: libraries, db: db}, nil
}

func (rt *runtime) newGallery(notifier gallery.Notifier) *gallery.Service {
	opts := []gallery.Option{
		gallery.WithLogger(rt.logger),
		gallery.WithLayout(rt.cfg.Gallery.Columns, rt.cfg.Gallery.RowHeight),
		gallery.WithScrollPolicy(rt.cfg.Gallery.Throttle, rt.cfg.Gallery.ScrollThreshold),
	}
	if notifier != nil {
		opts = append(opts, gallery.WithNotifier(notifier))
	}
	return gallery.NewService(rt.db, opts...)
}

// Run starts the HTTP server, the library watchers and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := setup(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.db.Close()
	logger := rt.logger

	// SSE broker doubles as the gallery notifier.
	broker := sse.NewBroker(libraryEventThrottle)
	defer broker.Close()

	svc := rt.newGallery(broker)
	defer svc.Close()
	if err := svc.ReloadAll(ctx); err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}

	apiRouter := api.NewRouter(svc, rt.libraries, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if err := rt.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// One watcher per pane; every catalog change refreshes the pane.
	for _, pane := range gallery.Panes() {
		store := rt.libraries[pane]
		g.Go(func() error {
			err := catalog.Watch(gCtx, rt.db, store, pane, logger, func(kind, pane, id string) {
				broker.PublishMediaEvent(kind, pane, id)
				svc.Invalidate(pane)
			})
			if err != nil {
				logger.Error("watcher stopped", slog.String("pane", pane), slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so that the watchers stop with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdin/stdout. Logs go to stderr so they
// do not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := setup(app.config, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	svc := rt.newGallery(nil)
	defer svc.Close()
	if err := svc.ReloadAll(ctx); err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, rt.db, rt.libraries, rt.logger).ServeStdio()
}

// RunSync brings the catalog up to date and prints a summary per pane.
func RunSync(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := setup(app.config, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	svc := rt.newGallery(nil)
	defer svc.Close()
	if err := svc.ReloadAll(ctx); err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}
	return printSummaries(app.out, svc.Summaries())
}

func printSummaries(w io.Writer, sums []gallery.Summary) error {
	for _, s := range sums {
		latest := string(s.Current)
		if latest == "" {
			latest = "-"
		}
		if _, err := fmt.Fprintf(w, "%-12s media=%d dated=%d months=%d current=%s\n",
			s.Pane, s.Media, s.Dated, s.Months, latest); err != nil {
			return err
		}
	}
	return nil
}
