package report

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/anishchandragiri369/studio-sub001/internal/logger"
)

type Schedules struct {
	Manifest   string
	StatusSync string
}

// Scheduler runs Jobs on cron schedules evaluated in the delivery location.
type Scheduler struct {
	cron      *cron.Cron
	jobs      *Jobs
	schedules Schedules
}

func NewScheduler(jobs *Jobs, schedules Schedules) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Logger().Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(jobs.loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:      c,
		jobs:      jobs,
		schedules: schedules,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedules.Manifest, s.jobs.BuildTomorrowManifest); err != nil {
		logger.WithError(err).Error("Failed to schedule manifest job")
		return err
	}
	logger.Info("Scheduled manifest job", "schedule", s.schedules.Manifest)

	if _, err := s.cron.AddFunc(s.schedules.StatusSync, s.jobs.SyncStatuses); err != nil {
		logger.WithError(err).Error("Failed to schedule status sync job")
		return err
	}
	logger.Info("Scheduled status sync job", "schedule", s.schedules.StatusSync)

	s.cron.Start()
	return nil
}

// Stop stops the cron loop. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
