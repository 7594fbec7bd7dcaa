// Package maintenance runs scheduled housekeeping: expired session cleanup
// and attempt retention pruning.
package maintenance

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/config"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
)

const defaultSchedule = "17 3 * * *"

// Scheduler runs the maintenance sweep on a cron schedule from settings.
type Scheduler struct {
	db     *database.DB
	loader *config.Loader
	cron   *cron.Cron
	onRun  func()
}

// NewScheduler creates a scheduler. onRun, if non-nil, is called after each
// completed sweep.
func NewScheduler(db *database.DB, loader *config.Loader, onRun func()) *Scheduler {
	return &Scheduler{
		db:     db,
		loader: loader,
		cron:   cron.New(),
		onRun:  onRun,
	}
}

// Start registers the cron entry and begins scheduling. The schedule comes
// from the maintenance.schedule setting; an invalid expression falls back to
// the default.
func (s *Scheduler) Start() error {
	schedule := s.loader.String("maintenance.schedule", defaultSchedule)

	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		log.Warn().Err(err).Str("schedule", schedule).Msg("Invalid maintenance schedule, using default")
		if _, err := s.cron.AddFunc(defaultSchedule, s.Run); err != nil {
			return err
		}
		schedule = defaultSchedule
	}

	s.cron.Start()
	log.Info().Str("schedule", schedule).Msg("Maintenance scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Maintenance scheduler stopped")
}

// Run executes one maintenance sweep immediately.
func (s *Scheduler) Run() {
	sessions, err := s.db.DeleteExpiredSessions()
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete expired sessions")
	}

	retentionDays := s.loader.Int("retention.attempt_days", 0)
	attempts, err := s.db.PruneAttempts(retentionDays)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune attempts")
	}

	log.Info().
		Int64("sessions_deleted", sessions).
		Int64("attempts_pruned", attempts).
		Int("retention_days", retentionDays).
		Msg("Maintenance sweep completed")

	if s.onRun != nil {
		s.onRun()
	}
}
