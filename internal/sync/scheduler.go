package sync

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/alwaysssummer/eng-lib/pkg/logger"
)

// DefaultSchedule runs an incremental sync every five minutes.
const DefaultSchedule = "*/5 * * * *"

// Scheduler runs periodic incremental syncs. The engine's own guard makes
// overlapping runs harmless: a tick that lands during a webhook-triggered
// sync is simply rejected.
type Scheduler struct {
	engine   *Engine
	cron     *cron.Cron
	schedule string
	logger   *logger.Logger
}

// NewScheduler creates a scheduler with the given cron expression. An empty
// schedule means DefaultSchedule.
func NewScheduler(engine *Engine, schedule string, log *logger.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		engine:   engine,
		cron:     cron.New(),
		schedule: schedule,
		logger:   log.WithField("component", "sync_scheduler"),
	}
}

// Start registers the sync job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		result := s.engine.IncrementalSync(context.Background(), false)
		if !result.Success {
			s.logger.WithField("errors", result.Errors).Warn("scheduled sync did not complete")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("sync scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("sync scheduler stopped")
}
