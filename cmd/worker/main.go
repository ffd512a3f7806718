// Command worker keeps a rolling window of BetsAPI days synced into the
// warehouse on a cron schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"matchkeys/ingestion/internal/client"
	"matchkeys/ingestion/internal/config"
	"matchkeys/ingestion/internal/ingest"
	"matchkeys/ingestion/internal/metrics"
	"matchkeys/ingestion/internal/repository"
	"matchkeys/ingestion/internal/scheduler"
)

func main() {
	cfg := config.MustLoad()
	cfg.SetupLogger()

	log.Info().Msg("Starting match key sync worker")
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	if cfg.BetsAPIToken == "" {
		log.Fatal().Msg("BETSAPI_TOKEN is required")
	}
	if err := cfg.ValidateWarehouse(); err != nil {
		log.Fatal().Err(err).Msg("Warehouse is not configured")
	}

	// Create context that listens for cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api := client.NewClient(cfg.BetsAPIBaseURL, cfg.BetsAPITimeout, cfg.BetsAPIRateLimit, cfg.BetsAPIBurstLimit)
	log.Info().Msg("BetsAPI client initialized")

	db, err := repository.NewDatabase(ctx, cfg.DatabaseConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Events.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure warehouse schema")
	}
	log.Info().Str("table", db.Events.TableName()).Msg("Database connection established")

	srv := startMetricsServer(cfg.MetricsPort, db)
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Update system and pool metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				stats := db.PoolStats()
				metrics.UpdateDBConnectionStats(stats["acquired_conns"], stats["idle_conns"])
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.NewScheduler(cfg, ingest.NewOrchestrator(api), db.Events)
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	if cfg.InitialSyncEnabled {
		log.Info().Msg("Running initial sync...")
		if err := sched.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Initial sync failed, continuing anyway...")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()
	log.Info().Msg("Received shutdown signal, gracefully shutting down...")

	sched.Stop()
	log.Info().Msg("Worker shutdown complete")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int, db *repository.Database) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Int("port", port).Msg("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return srv
}
