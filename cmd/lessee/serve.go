package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tphummel/lessee/internal/db"
	"github.com/tphummel/lessee/internal/events"
	"github.com/tphummel/lessee/internal/handlers"
	"github.com/tphummel/lessee/internal/leasing"
	"github.com/tphummel/lessee/internal/metrics"
	"github.com/tphummel/lessee/internal/middleware"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()
	slog.Info("database ready", "path", cfg.DBPath, "schema_version", database.SchemaVersion())

	opts := []leasing.Option{leasing.WithLogger(slog.Default())}
	if cfg.NATSURL != "" {
		bus, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer bus.Close()
		opts = append(opts, leasing.WithPublisher(bus))
		slog.Info("publishing lease events", "nats_url", cfg.NATSURL, "subject", events.SubjectLeaseCreated)
	}
	svc := leasing.New(database, opts...)

	n, err := svc.SeedPlatforms(ctx, cfg.Platforms)
	if err != nil {
		return fmt.Errorf("seed platforms: %w", err)
	}
	if n > 0 {
		slog.Info("seeded platforms", "count", n)
	}

	reg := prometheus.NewRegistry()
	metrics.Register(reg, svc)

	h := &handlers.Handler{Svc: svc, DB: database, Version: version, Commit: commit}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           newHandler(h, reg, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newHandler builds the full HTTP handler: routes, per-route metrics,
// request logging and CORS.
func newHandler(h *handlers.Handler, g prometheus.Gatherer, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// route registers fn under pattern, labelling metrics with the path part.
	route := func(pattern string, fn http.HandlerFunc) {
		_, path, _ := strings.Cut(pattern, " ")
		mux.Handle(pattern, metrics.Middleware(path, fn))
	}

	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", metrics.Handler(g))

	mux.HandleFunc("GET /openapi.yaml", handlers.OpenAPISpec)
	mux.HandleFunc("GET /openapi.json", handlers.OpenAPIJSON)
	mux.HandleFunc("GET /docs", handlers.Docs)

	route("GET /api/v1/platforms", h.ListPlatforms)
	route("GET /api/v1/hardware", h.ListHardware)
	route("POST /api/v1/hardware", h.CreateHardware)
	route("GET /api/v1/hardware/{id}", h.GetHardware)
	route("GET /api/v1/leases", h.ListLeases)
	route("POST /api/v1/leases", h.CreateLease)

	skip := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	return middleware.CORS(middleware.RequestLogger(logger, skip, mux))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
