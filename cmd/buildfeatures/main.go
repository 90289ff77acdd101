// Command buildfeatures runs the pipeline once and exits: optionally backfill
// the configured seasons, then build and persist the feature table. Suited to
// cron-less environments and one-off historical rebuilds.
package main

import (
	"context"
	"flag"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nhl_wp/pipeline/internal/cache"
	"nhl_wp/pipeline/internal/client"
	"nhl_wp/pipeline/internal/config"
	"nhl_wp/pipeline/internal/repository"
	"nhl_wp/pipeline/internal/service"
)

func main() {
	var (
		backfill    = flag.Bool("backfill", false, "ingest the configured season range before building")
		update      = flag.Bool("update", false, "refetch pending games before building")
		predictDate = flag.String("predict", "", "prediction date (YYYY-MM-DD); ingests that day's schedule and keeps incomplete rows")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := config.MustLoad()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	featureCfg, err := cfg.Features()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid feature configuration")
	}

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

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
	}

	apiClient := client.NewClient(cfg.StatsAPIBaseURL, cfg.StatsAPITimeout)
	svc := service.NewService(featureCfg, apiClient, db, redisCache)

	mode := service.ModeFull

	if *backfill {
		log.Info().
			Int("first_season", cfg.FirstSeason).
			Int("last_season", cfg.LastSeason).
			Msg("Backfilling seasons...")
		if err := svc.IngestSeasons(ctx, cfg.FirstSeason, cfg.LastSeason); err != nil {
			log.Fatal().Err(err).Msg("Season backfill failed")
		}
	}

	if *update {
		mode = service.ModeUpdate
		if _, err := svc.UpdateFinals(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to update pending games")
		}
	}

	if *predictDate != "" {
		mode = service.ModePrediction
		date, err := time.Parse("2006-01-02", *predictDate)
		if err != nil {
			log.Fatal().Str("predict", *predictDate).Msg("Invalid prediction date, want YYYY-MM-DD")
		}
		if _, err := svc.IngestPredictionDay(ctx, date); err != nil {
			log.Fatal().Err(err).Msg("Failed to ingest prediction-day schedule")
		}
	}

	_, report, err := svc.BuildFeatures(ctx, mode)
	if err != nil {
		log.Fatal().Err(err).Msg("Feature build failed")
	}

	log.Info().
		Str("mode", mode).
		Int("games", report.GamesIn).
		Int("rows", report.RowsEmitted).
		Int("dropped", report.RowsDropped).
		Int("zero_denominators", report.ZeroDenominators).
		Int("skew_imputed", report.SkewImputed).
		Msg("Feature build complete")
}
