package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nhl_wp/pipeline/internal/cache"
	"nhl_wp/pipeline/internal/client"
	"nhl_wp/pipeline/internal/config"
	"nhl_wp/pipeline/internal/metrics"
	"nhl_wp/pipeline/internal/repository"
	"nhl_wp/pipeline/internal/scheduler"
	"nhl_wp/pipeline/internal/service"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting NHL win-probability feature pipeline worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	featureCfg, err := cfg.Features()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid feature configuration")
	}

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize stats API client
	apiClient := client.NewClient(cfg.StatsAPIBaseURL, cfg.StatsAPITimeout)
	log.Info().Msg("Stats API client initialized")

	// Initialize database connection
	dbConfig := repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}

	db, err := repository.NewDatabase(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize Redis cache
	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, time.Duration(cfg.CacheTTLFeatures)*time.Second)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
		log.Info().Msg("Redis cache connected")
	}

	svc := service.NewService(featureCfg, apiClient, db, redisCache)

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Create and start scheduler
	sched := scheduler.NewScheduler(cfg, svc)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Run initial build if enabled: backfill the configured seasons, then a
	// full feature build over everything in the store.
	if cfg.InitialBuildOnBoot {
		log.Info().Msg("Running initial build...")
		if err := runInitialBuild(ctx, cfg, svc); err != nil {
			log.Error().Err(err).Msg("Initial build failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial build completed successfully")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// runInitialBuild backfills the configured seasons and builds the feature table
func runInitialBuild(ctx context.Context, cfg *config.Config, svc *service.Service) error {
	log.Info().
		Int("first_season", cfg.FirstSeason).
		Int("last_season", cfg.LastSeason).
		Msg("Backfilling seasons...")

	if err := svc.IngestSeasons(ctx, cfg.FirstSeason, cfg.LastSeason); err != nil {
		return fmt.Errorf("season backfill failed: %w", err)
	}

	_, report, err := svc.BuildFeatures(ctx, service.ModeFull)
	if err != nil {
		return err
	}

	log.Info().
		Int("rows", report.RowsEmitted).
		Int("dropped", report.RowsDropped).
		Msg("Initial feature table built")

	return nil
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string) {
	http.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
