// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"attestry/internal/attestation/events"
	"attestry/internal/attestation/handler"
	"attestry/internal/attestation/service"
	"attestry/internal/attestation/store"
	"attestry/internal/platform/config"
	"attestry/internal/platform/httpserver"
	"attestry/internal/platform/logger"
	"attestry/internal/platform/metrics"
	platformredis "attestry/internal/platform/redis"
	"attestry/internal/platform/token"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, health, cleanup, err := buildKV(ctx, cfg)
	if err != nil {
		log.Error("storage setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	publisher, closePublisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		log.Error("event publisher setup failed", "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	registry := service.New(
		store.NewState(kv),
		publisher,
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
	)

	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := chi.NewRouter()
	router.Get("/healthz", httpserver.Healthz(health))
	router.Handle("/metrics", promhttp.Handler())
	handler.New(registry, log, tokens).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting attestry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildKV picks the storage backend: Postgres when configured, then Redis,
// falling back to the in-memory store for single-process runs. The returned
// health check feeds /healthz; it is nil for the in-memory backend.
func buildKV(ctx context.Context, cfg config.Server) (store.KV, func(context.Context) error, func(), error) {
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		if _, err := db.ExecContext(ctx, store.Schema); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return store.NewPostgresKV(db), db.PingContext, func() { _ = db.Close() }, nil
	}

	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	if client != nil {
		return store.NewRedisKV(client.Client), client.Health, func() { _ = client.Close() }, nil
	}

	return store.NewInMemoryKV(), nil, func() {}, nil
}

// buildPublisher picks the event transport: Kafka when brokers are
// configured, otherwise the structured log.
func buildPublisher(ctx context.Context, cfg config.Server, log *slog.Logger) (events.Publisher, func(), error) {
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, err
		}
		return kafka, kafka.Close, nil
	}
	return events.NewLogPublisher(log), func() {}, nil
}
