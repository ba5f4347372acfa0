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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	sshttp "github.com/brixworks/sitesync/internal/adapter/http"
	ssnats "github.com/brixworks/sitesync/internal/adapter/nats"
	"github.com/brixworks/sitesync/internal/adapter/otel"
	"github.com/brixworks/sitesync/internal/adapter/postgres"
	"github.com/brixworks/sitesync/internal/adapter/ristretto"
	"github.com/brixworks/sitesync/internal/config"
	"github.com/brixworks/sitesync/internal/logger"
	"github.com/brixworks/sitesync/internal/port/events"
	"github.com/brixworks/sitesync/internal/secrets"
	"github.com/brixworks/sitesync/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"write_concurrency", cfg.Sync.WriteConcurrency,
	)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownOtel, err := otel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Error("otel shutdown failed", "error", err)
		}
	}()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS is optional; without it run events are simply not published.
	var publisher events.Publisher
	if cfg.NATS.URL != "" {
		np, err := ssnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = np.Close() }()
		publisher = np
	}

	catalogCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer catalogCache.Close()

	cipher, err := secrets.NewCipher(cfg.Secrets.TokenKey)
	if err != nil {
		return fmt.Errorf("token cipher: %w", err)
	}

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---
	store := postgres.NewStore(pool)
	tokens := service.NewTokenManager(store, cipher, cfg.Providers, cfg.Sync.RefreshMargin, log)
	credentialSvc := service.NewCredentialService(store, cipher, cfg.Providers, log)
	syncSvc := service.NewSyncService(store, tokens, cfg.Providers, publisher, metrics, cfg.Sync, log)
	catalogSvc := service.NewCatalogService(catalogCache, tokens, cfg.Providers, cfg.Cache, cfg.Sync.HTTPTimeout, log)
	mappingSvc := service.NewMappingService()

	// --- HTTP ---
	handlers := sshttp.NewHandlers(credentialSvc, syncSvc, catalogSvc, mappingSvc)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(sshttp.CORS(cfg.Server.CORSOrigin))
	r.Use(sshttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(2 * time.Minute)) // sync runs are the slowest requests
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	sshttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
