package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/s1natex/taskboard-GO/internal/board"
	"github.com/s1natex/taskboard-GO/internal/config"
	"github.com/s1natex/taskboard-GO/internal/kv"
	"github.com/s1natex/taskboard-GO/internal/middleware"
	"github.com/s1natex/taskboard-GO/internal/tasks"
	"github.com/s1natex/taskboard-GO/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is the store stack shared by the server and the CLI commands.
type app struct {
	store  tasks.Store
	local  *tasks.LocalStore
	kv     *kv.SQLite
	prefs  *board.Preferences
	logger *slog.Logger
}

func (a *app) Close() error {
	if a.kv == nil {
		return nil
	}
	return a.kv.Close()
}

func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := kv.OpenSQLiteFile(ctx, cfg.Store.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Store.DataPath, err)
	}
	a := &app{kv: db, prefs: board.NewPreferences(db), logger: logger}

	var store tasks.Store
	switch cfg.Store.Mode {
	case config.StoreRemote:
		remote, err := tasks.NewRemoteStore(cfg.Store.RemoteURL,
			tasks.WithAPIKey(cfg.Store.RemoteAPIKey),
			tasks.WithTimeout(cfg.Store.RemoteTimeout),
		)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		store = remote
	default:
		local := tasks.NewLocalStore(db)
		if err := local.Load(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.local = local
		store = local
	}
	a.store = tasks.NewInstrumented(store, logger)
	return a, nil
}

// newRouter wires the health endpoint, the task API, the board UI, and the middleware stack
func newRouter(a *app, cfg config.Config) *chi.Mux {
	r := chi.NewRouter()
	logger := a.logger

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)

	// Panic recovery: never crash the server; returns 500 on panics
	r.Use(chimw.Recoverer)

	// Timeouts: cancel handlers that exceed this duration
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id", web.FragmentHeader},
		ExposedHeaders:   []string{"X-Request-Id", "Trace-Id", web.NoticeHeader, web.NoticeKindHeader},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.RateLimitMiddleware(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))

	// ---- Routes ----

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	// collaborator contract; the only part behind auth
	r.Group(func(r chi.Router) {
		mode, _ := middleware.ParseAuthMode(cfg.Auth.Mode)
		r.Use(middleware.AuthMiddleware(middleware.AuthConfig{
			Mode:        mode,
			APIKey:      cfg.Auth.APIKey,
			BearerToken: cfg.Auth.BearerToken,
		}))
		tasks.RegisterRoutes(r, a.store, logger)
	})

	web.RegisterRoutes(r, board.NewController(a.store, a.prefs, logger), logger)

	return r
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: l,
	})
	return slog.New(handler)
}

func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
