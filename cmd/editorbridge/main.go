package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/editorbridge/internal/adapter/editor"
	cfmcp "github.com/Strob0t/editorbridge/internal/adapter/mcp"
	cfotel "github.com/Strob0t/editorbridge/internal/adapter/otel"
	"github.com/Strob0t/editorbridge/internal/adapter/ristretto"
	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/logger"
	"github.com/Strob0t/editorbridge/internal/middleware"
	"github.com/Strob0t/editorbridge/internal/resilience"
	"github.com/Strob0t/editorbridge/internal/service"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "inspect" {
		err = runInspect(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// app is the wired bridge.
type app struct {
	cfg     *config.Config
	store   *config.Store
	utility *service.Utility
	server  *cfmcp.Server
	cleanup func()
}

// wire builds every component from cfg. Logging must already be set up.
func wire(cfg *config.Config, metrics *cfotel.Metrics) (*app, error) {
	store := config.NewStore(config.Load)

	capabilities, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return nil, fmt.Errorf("capability cache: %w", err)
	}

	client := editor.NewClient()
	client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	registry := catalog.Default()
	dispatcher := service.NewDispatcher(client, capabilities, cfg.Cache.CapabilityTTL, metrics)
	gate := service.NewGate(service.NewResolver(dispatcher, metrics), metrics)
	bridge := service.NewBridge(registry, store, gate, dispatcher, metrics)
	utility := service.NewUtility(store, registry, client, dispatcher)

	server := cfmcp.NewServer(
		cfmcp.ServerConfig{Name: cfg.Server.Name, Version: cfg.Server.Version},
		cfmcp.ServerDeps{Registry: registry, Tools: bridge, Utility: utility},
	)

	return &app{
		cfg:     cfg,
		store:   store,
		utility: utility,
		server:  server,
		cleanup: capabilities.Close,
	}, nil
}

func run() error {
	cfg, loadWarnings := config.Load()

	// Stdout carries the MCP stream in stdio mode, so logs always go to stderr.
	log, closer := logger.New(cfg.Logging, os.Stderr)
	defer closer.Close()
	slog.SetDefault(log)

	for _, w := range loadWarnings {
		slog.Warn("config warning", "code", w.Code, "message", w.Message)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := cfotel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	a, err := wire(cfg, metrics)
	if err != nil {
		return err
	}
	defer a.cleanup()

	snap := a.store.Current()
	slog.Info("config loaded",
		"transport", cfg.Server.Transport,
		"backend_url", snap.BackendURL,
		"allow_remote", snap.AllowRemote,
		"strict_local_only", snap.StrictLocalOnly,
		"unsafe_invoke", snap.UnsafeInvokeEnabled,
		"default_timeout_ms", snap.DefaultTimeoutMs,
		"max_timeout_ms", snap.MaxTimeoutMs,
	)
	for _, w := range snap.Warnings {
		slog.Warn("backend config warning", "code", w.Code, "message", w.Message)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reloadOnHangup(ctx, a.utility) })

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           newRouter(a),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		g.Go(func() error {
			slog.Info("starting mcp http server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			slog.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	default:
		g.Go(func() error {
			defer stop()
			return a.server.ServeStdio(ctx, os.Stdin, os.Stdout)
		})
	}

	return g.Wait()
}

// newRouter mounts the streamable MCP transport and a health check endpoint.
func newRouter(a *app) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cfotel.HTTPMiddleware(a.cfg.Logging.Service, "/health"))

	r.Get("/health", healthHandler(a.utility))
	r.With(cfmcp.AuthMiddleware(a.cfg.Server.AuthToken)).Handle("/mcp", a.server.HTTPHandler())

	return r
}

// healthHandler reports the bridge as up and includes the last known
// backend reachability. It never contacts the backend itself.
func healthHandler(utility *service.Utility) http.HandlerFunc {
	type healthStatus struct {
		Status     string               `json:"status"`
		BackendURL string               `json:"backendUrl"`
		Backend    service.Reachability `json:"backend"`
		Warnings   int                  `json:"warnings"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		report := utility.Status(false)
		status := healthStatus{
			Status:     "ok",
			BackendURL: report.Config.BackendURL,
			Backend:    report.Backend,
			Warnings:   len(report.Warnings),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}

// reloadOnHangup reloads the backend configuration on SIGHUP, the same way
// the reloadConfig tool does.
func reloadOnHangup(ctx context.Context, utility *service.Utility) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			report := utility.Reload(ctx)
			slog.Info("config reloaded on SIGHUP", "changes", len(report.Changes), "warnings", len(report.Warnings))
		}
	}
}
