package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"nhl_wp/pipeline/internal/config"
	"nhl_wp/pipeline/internal/service"
)

// Scheduler manages the pipeline's background cadence:
// - Poll the provider for newly finalized games and fold them into the store
// - Nightly full rebuild of the feature table
// - Morning prediction-day pass for the current date's schedule
type Scheduler struct {
	cfg      *config.Config
	svc      *service.Service
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, svc *service.Service) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		svc:      svc,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	// Nightly rebuild: refresh prediction-day games for today, then a full
	// build over the whole store.
	if _, err := s.cron.AddFunc(s.cfg.NightlyRebuildCron, func() {
		log.Info().Msg("Running nightly rebuild...")
		if err := s.nightlyRebuild(ctx); err != nil {
			log.Error().Err(err).Msg("Nightly rebuild failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule nightly rebuild: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.NightlyRebuildCron).
		Msg("Nightly rebuild scheduled")

	interval := time.Duration(s.cfg.UpdatePollInterval) * time.Second
	s.ticker = time.NewTicker(interval)
	log.Info().
		Dur("interval", interval).
		Msg("Update polling started")

	go s.pollUpdates(ctx)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

// pollUpdates periodically folds newly finalized games into the store. A
// rebuild only runs when something actually changed.
func (s *Scheduler) pollUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping update polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping update polling")
			return
		case <-s.ticker.C:
			if err := s.updatePass(ctx); err != nil {
				log.Error().Err(err).Msg("Update pass failed")
			}
		}
	}
}

// updatePass refetches pending games and rebuilds the feature table when any
// of them went Final since the last pass.
func (s *Scheduler) updatePass(ctx context.Context) error {
	start := time.Now()

	updated, err := s.svc.UpdateFinals(ctx)
	if err != nil {
		return fmt.Errorf("failed to update pending games: %w", err)
	}
	if updated == 0 {
		log.Debug().
			Dur("duration", time.Since(start)).
			Msg("Update pass complete, no new finals")
		return nil
	}

	if _, _, err := s.svc.BuildFeatures(ctx, service.ModeUpdate); err != nil {
		return fmt.Errorf("failed to rebuild features: %w", err)
	}

	log.Info().
		Int("finalized", updated).
		Dur("duration", time.Since(start)).
		Msg("Update pass complete")

	return nil
}

// nightlyRebuild ingests today's schedule so upcoming games get pregame rows,
// then rebuilds the feature table in prediction mode.
func (s *Scheduler) nightlyRebuild(ctx context.Context) error {
	start := time.Now()

	if _, err := s.svc.UpdateFinals(ctx); err != nil {
		return fmt.Errorf("failed to update pending games: %w", err)
	}

	if _, err := s.svc.IngestPredictionDay(ctx, time.Now().UTC()); err != nil {
		// A day without scheduled games is normal; keep rebuilding.
		log.Warn().Err(err).Msg("Failed to ingest today's schedule")
	}

	if _, _, err := s.svc.BuildFeatures(ctx, service.ModePrediction); err != nil {
		return fmt.Errorf("failed to rebuild features: %w", err)
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Msg("Nightly rebuild complete")

	return nil
}
