package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/velora/studioops/internal/adapter/blob"
	"github.com/velora/studioops/internal/adapter/fsm"
	"github.com/velora/studioops/internal/adapter/otel"
	riveradapter "github.com/velora/studioops/internal/adapter/river"
	"github.com/velora/studioops/internal/adapter/sqlite"
	"github.com/velora/studioops/internal/app"

	handler "github.com/velora/studioops/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "studioops.db")
	blobRoot := envOrDefault("BLOB_ROOT", "blobs")
	chunkSize := envIntOrDefault("IN_CLAUSE_LIMIT", sqlite.DefaultChunkSize)

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return err
	}

	store, err := blob.New(blobRoot)
	if err != nil {
		return err
	}

	riverClient, err := riveradapter.Setup(ctx, db, store)
	if err != nil {
		return err
	}
	if err := riverClient.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			log.Error("river shutdown", "error", err)
		}
	}()

	// --- Application ---
	svc := app.NewService(
		otel.NewTracingRepository(repo),
		fsm.New(),
		otel.NewTracingPurger(sqlite.NewPurger(db, log)),
		sqlite.NewReclaimer(db, chunkSize, log),
		otel.NewTracingScheduler(riveradapter.NewScheduler(riverClient)),
		sqlite.NewExporter(repo),
		sqlite.NewAuditSink(db),
		log,
	)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware("studioops", otelchi.WithChiRoutes(router)))
	router.Use(handler.ActorMiddleware)

	api := humachi.New(router, huma.DefaultConfig("studioops", "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("studioops listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	log.Info("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env value, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}
