package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"matchkeys/ingestion/internal/config"
	"matchkeys/ingestion/internal/ingest"
	"matchkeys/ingestion/internal/metrics"
	"matchkeys/ingestion/internal/models"
	"matchkeys/ingestion/internal/normalize"
)

// Runner fetches a range.
type Runner interface {
	Run(ctx context.Context, req ingest.RangeRequest, progress ingest.ProgressFunc) (*ingest.Result, error)
}

// Loader replaces a warehouse partition.
type Loader interface {
	ReplacePartition(ctx context.Context, p models.Partition, rows []models.EventRow) (int64, int64, error)
}

// Scheduler periodically syncs a rolling window of days into the warehouse
type Scheduler struct {
	cfg    *config.Config
	runner Runner
	loader Loader
	cron   *cron.Cron
	now    func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, runner Runner, loader Loader) *Scheduler {
	logger := cron.PrintfLogger(&log.Logger)
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		loader: loader,
		cron:   cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		now:    time.Now,
	}
}

// Start registers the sync job and starts the cron scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.SyncCron, func() {
		if err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled sync failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule sync %q: %w", s.cfg.SyncCron, err)
	}

	s.cron.Start()
	log.Info().
		Str("cron", s.cfg.SyncCron).
		Str("scope", s.cfg.SyncScope).
		Msg("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for a running sync to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// Window returns the day range of the next sync, relative to today in the
// configured timezone.
func (s *Scheduler) Window() (time.Time, time.Time) {
	today := models.Day(s.now().In(normalize.ResolveLocation(s.cfg.DefaultTimezone)))
	return today.AddDate(0, 0, s.cfg.SyncStartOffsetDays), today.AddDate(0, 0, s.cfg.SyncEndOffsetDays)
}

// RunOnce fetches the window and replaces its partition. A run that produced
// no rows never touches the warehouse.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	status := "error"
	loaded := false
	defer func() {
		metrics.RecordSync(status, loaded, time.Since(start).Seconds())
	}()

	scope, err := models.ParseScope(s.cfg.SyncScope)
	if err != nil {
		return err
	}

	from, to := s.Window()
	result, err := s.runner.Run(ctx, ingest.RangeRequest{
		Token:    s.cfg.BetsAPIToken,
		SportID:  s.cfg.DefaultSportID,
		Scope:    scope,
		Start:    from,
		End:      to,
		Timezone: s.cfg.DefaultTimezone,
		MaxPages: s.cfg.MaxPagesPerDay,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch range: %w", err)
	}

	log.Info().
		Str("outcome", string(result.Outcome())).
		Msg(result.Summary())

	if len(result.Rows) == 0 {
		status = string(result.Outcome())
		return nil
	}

	p := models.NewPartition(result.Start, result.End, s.cfg.DefaultTimezone)
	if _, _, err := s.loader.ReplacePartition(ctx, p, result.Rows); err != nil {
		return fmt.Errorf("failed to load partition %s: %w", p, err)
	}
	loaded = true

	status = "success"
	if result.Outcome() == ingest.OutcomePartial {
		status = string(ingest.OutcomePartial)
	}
	return nil
}
