package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vouch/internal/company"
	"vouch/internal/correction"
	"vouch/internal/platform/config"
	"vouch/internal/platform/database"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/middleware"
	platformredis "vouch/internal/platform/redis"
	"vouch/internal/registry"
	"vouch/internal/verification/adapters"
	"vouch/internal/verification/events"
	"vouch/internal/verification/handler"
	"vouch/internal/verification/metrics"
	"vouch/internal/verification/orchestrator"
	"vouch/internal/verification/store"
)

// drainTimeout bounds how long shutdown waits for in-flight runs. Runs
// longer than this are abandoned; their records stay IN_PROGRESS until the
// hard run deadline would have forced them terminal anyway.
const drainTimeout = 30 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, log); err != nil {
		log.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var lookup registry.Lookup
	if cfg.RegistryBaseURL != "" {
		client := registry.NewClient(cfg.RegistryBaseURL, log)
		lookup = client
		if redisClient != nil {
			lookup = registry.NewCachedLookup(client, redisClient.Client, config.RegistryCacheTTL, log)
		}
	} else {
		log.Warn("no registry configured, registration checks fall back to format validation")
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("failed to create kafka publisher", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		log.Warn("no kafka brokers configured, status change events stay in memory")
		publisher = events.NewMemoryPublisher()
	}

	service := orchestrator.New(
		store.NewPostgres(db),
		// Company snapshots come from the upstream CRM; the in-memory
		// directory serves until that integration lands.
		company.NewMemoryDirectory(),
		correction.NewMemorySource(),
		[]adapters.Adapter{
			adapters.NewDNSAdapter(nil),
			adapters.NewRegistrationAdapter(lookup),
			adapters.NewContactAdapter(nil),
			adapters.NewAddressAdapter(),
		},
		publisher,
		metrics.New(),
		log,
		cfg.Verification,
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Timeout(30 * time.Second))

	handler.New(service, log).Register(router)
	router.Get("/healthz", healthz(db, redisClient))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting vouch server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	drained := make(chan struct{})
	go func() {
		service.Drain()
		close(drained)
	}()
	select {
	case <-drained:
		log.Info("all verification runs finalized")
	case <-time.After(drainTimeout):
		log.Warn("abandoning in-flight verification runs", "waited", drainTimeout)
	}
}

// healthz reports liveness of the process and its backing stores.
func healthz(db interface {
	PingContext(ctx context.Context) error
}, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			http.Error(w, `{"status":"degraded","reason":"database"}`, http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, `{"status":"degraded","reason":"redis"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
