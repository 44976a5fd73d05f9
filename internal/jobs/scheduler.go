package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the periodic artifact reload. The artifacts are produced
// out-of-band by the builder CLI, so the server only needs to notice new
// files on disk; a cron-driven reload keeps long-lived processes current
// without a manual admin call.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	logger *logrus.Logger
}

// NewScheduler creates a scheduler around the build runner.
func NewScheduler(runner *Runner, logger *logrus.Logger) *Scheduler {
	cronLogger := cron.VerbosePrintfLogger(logger)
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger)),
		runner: runner,
		logger: logger,
	}
}

// Start schedules the reload job and starts the cron loop. An empty
// schedule disables periodic reloads.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		s.logger.WithField("component", "scheduler").Info("Periodic artifact reload disabled")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.runner.Reload(context.Background()); err != nil {
			s.logger.WithError(err).WithField("component", "scheduler").Warn("Scheduled reload failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule artifact reload: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"component": "scheduler",
		"schedule":  schedule,
	}).Info("Scheduled artifact reload")
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
