package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"nhl_wp/pipeline/internal/cache"
	"nhl_wp/pipeline/internal/client"
	"nhl_wp/pipeline/internal/features"
	"nhl_wp/pipeline/internal/metrics"
	"nhl_wp/pipeline/internal/models"
	"nhl_wp/pipeline/internal/repository"
)

// Build modes reported to metrics
const (
	ModeFull       = "full"
	ModeUpdate     = "update"
	ModePrediction = "prediction"
)

// Service orchestrates the pipeline: ingestion from the stats API into the
// observation store, and feature builds from the store into the feature table.
type Service struct {
	featureCfg features.Config
	client     *client.Client
	db         *repository.Database
	cache      *cache.RedisCache // nil when Redis is unavailable
}

// NewService creates the pipeline service. The cache is optional.
func NewService(featureCfg features.Config, apiClient *client.Client, db *repository.Database, redisCache *cache.RedisCache) *Service {
	return &Service{
		featureCfg: featureCfg,
		client:     apiClient,
		db:         db,
		cache:      redisCache,
	}
}

// IngestSeasons backfills every season in [first, last]. A failed game is
// skipped and counted, never fatal; a failed season aborts the backfill.
func (s *Service) IngestSeasons(ctx context.Context, first, last int) error {
	for year := first; year <= last; year++ {
		if err := s.IngestSeason(ctx, year); err != nil {
			return fmt.Errorf("season %d: %w", year, err)
		}
	}
	return nil
}

// IngestSeason fetches one season's regular-season schedule and ingests every
// completed game not yet in the store.
func (s *Service) IngestSeason(ctx context.Context, startYear int) error {
	start := time.Now()

	sched, err := s.client.FetchSeasonSchedule(ctx, startYear, client.GameTypeRegular)
	if err != nil {
		metrics.RecordError("ingest", "schedule_fetch")
		return fmt.Errorf("failed to fetch schedule: %w", err)
	}

	known, err := s.db.Games.GameIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load known game ids: %w", err)
	}

	ingested, skipped := 0, 0
	for _, g := range sched {
		if !g.IsFinal() || known[g.GameID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.IngestGame(ctx, g.GameID); err != nil {
			log.Warn().Err(err).Str("game_id", g.GameID).Msg("Skipping game")
			metrics.GamesSkipped.Inc()
			skipped++
			continue
		}
		ingested++
	}

	log.Info().
		Int("season", startYear).
		Int("scheduled", len(sched)).
		Int("ingested", ingested).
		Int("skipped", skipped).
		Dur("took", time.Since(start)).
		Msg("Season ingested")

	return nil
}

// IngestGame fetches one game's live feed and writes its header plus team and
// goalie observations. Records missing required join keys are dropped and
// counted, not fatal.
func (s *Service) IngestGame(ctx context.Context, gameID string) error {
	obs, err := s.client.FetchGameObservations(ctx, gameID)
	if err != nil {
		return err
	}
	return s.ingestObservations(ctx, gameID, obs)
}

func (s *Service) ingestObservations(ctx context.Context, gameID string, obs *client.GameObservations) error {
	game, err := obs.Game.ToGame()
	if err != nil {
		metrics.ObservationsMalformed.Inc()
		return fmt.Errorf("malformed game header: %w", err)
	}
	if err := s.db.Games.Upsert(ctx, game); err != nil {
		return err
	}

	for i := range obs.Teams {
		tg, err := obs.Teams[i].ToTeamGame()
		if err != nil {
			if errors.Is(err, models.ErrMalformedObservation) {
				log.Warn().Str("game_id", gameID).Msg("Dropping malformed team observation")
				metrics.ObservationsMalformed.Inc()
				continue
			}
			return err
		}
		if err := s.db.TeamGames.Upsert(ctx, tg); err != nil {
			return err
		}
		metrics.ObservationsIngested.WithLabelValues("team").Inc()
	}

	for i := range obs.Goalies {
		gg, err := obs.Goalies[i].ToGoalieGame(i)
		if err != nil {
			if errors.Is(err, models.ErrMalformedObservation) {
				log.Warn().Str("game_id", gameID).Msg("Dropping malformed goalie observation")
				metrics.ObservationsMalformed.Inc()
				continue
			}
			return err
		}
		if err := s.db.GoalieGames.Upsert(ctx, gg); err != nil {
			return err
		}
		metrics.ObservationsIngested.WithLabelValues("goalie").Inc()
	}

	return nil
}

// UpdateFinals refetches games the store still has as pending and ingests the
// ones the provider has since marked Final. Returns how many games changed.
func (s *Service) UpdateFinals(ctx context.Context) (int, error) {
	pending, err := s.db.Games.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending games: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	updated := 0
	for _, g := range pending {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		obs, err := s.client.FetchGameObservations(ctx, g.GameID)
		if err != nil {
			log.Warn().Err(err).Str("game_id", g.GameID).Msg("Failed to refetch pending game")
			metrics.GamesSkipped.Inc()
			continue
		}
		if obs.Game.HomeWin == nil {
			continue
		}
		if err := s.ingestObservations(ctx, g.GameID, obs); err != nil {
			log.Warn().Err(err).Str("game_id", g.GameID).Msg("Failed to ingest finalized game")
			metrics.GamesSkipped.Inc()
			continue
		}
		updated++
	}

	log.Info().
		Int("pending", len(pending)).
		Int("finalized", updated).
		Msg("Pending games updated")

	return updated, nil
}

// IngestPredictionDay writes game headers for one calendar date's schedule.
// Outcomes stay null; the feature build later attaches pregame features to
// these rows from completed history.
func (s *Service) IngestPredictionDay(ctx context.Context, date time.Time) (int, error) {
	sched, err := s.client.FetchScheduleByDate(ctx, date)
	if err != nil {
		metrics.RecordError("ingest", "schedule_fetch")
		return 0, fmt.Errorf("failed to fetch schedule for %s: %w", date.Format("2006-01-02"), err)
	}

	saved := 0
	for _, sg := range sched {
		in := models.GameInput{
			GameID:   sg.GameID,
			DateTime: sg.DateTime,
			HomeTeam: sg.HomeTeam,
			AwayTeam: sg.AwayTeam,
		}
		game, err := in.ToGame()
		if err != nil {
			log.Warn().Str("game_id", sg.GameID).Msg("Dropping malformed scheduled game")
			metrics.ObservationsMalformed.Inc()
			continue
		}
		if err := s.db.Games.Upsert(ctx, game); err != nil {
			return saved, err
		}
		saved++
	}

	log.Info().
		Str("date", date.Format("2006-01-02")).
		Int("games", saved).
		Msg("Prediction-day schedule ingested")

	return saved, nil
}

// BuildFeatures loads the whole observation store, runs the feature pipeline
// and replaces the persisted feature table. In prediction mode rows with
// incomplete rolling history are kept rather than dropped.
func (s *Service) BuildFeatures(ctx context.Context, mode string) (*models.FeatureTable, *features.Report, error) {
	start := time.Now()

	games, err := s.db.Games.ListAll(ctx)
	if err != nil {
		metrics.RecordBuild(mode, "error", time.Since(start).Seconds())
		return nil, nil, err
	}
	teams, err := s.db.TeamGames.ListAll(ctx)
	if err != nil {
		metrics.RecordBuild(mode, "error", time.Since(start).Seconds())
		return nil, nil, err
	}
	goalies, err := s.db.GoalieGames.ListAll(ctx)
	if err != nil {
		metrics.RecordBuild(mode, "error", time.Since(start).Seconds())
		return nil, nil, err
	}

	cfg := s.featureCfg
	if mode == ModePrediction {
		cfg.DropIncomplete = false
	}

	table, report, err := features.Build(cfg, games, teams, goalies)
	if err != nil {
		metrics.RecordBuild(mode, "error", time.Since(start).Seconds())
		return nil, nil, fmt.Errorf("feature build failed: %w", err)
	}

	if err := s.db.Features.ReplaceTable(ctx, table); err != nil {
		metrics.RecordBuild(mode, "error", time.Since(start).Seconds())
		return nil, nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetFeatureTable(ctx, table); err != nil {
			log.Warn().Err(err).Msg("Failed to cache feature table")
			metrics.RecordError("cache", "set_features")
		}
		if err := s.cache.SetBuildReport(ctx, report); err != nil {
			log.Warn().Err(err).Msg("Failed to cache build report")
			metrics.RecordError("cache", "set_report")
		}
	}

	metrics.RecordBuild(mode, "success", time.Since(start).Seconds())
	metrics.UpdateBuildStats(report.RowsEmitted, report.RowsDropped, report.ZeroDenominators, report.SkewImputed)
	metrics.GamesInStore.Set(float64(len(games)))

	return table, report, nil
}
