// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/souma9830/WalletWise/internal/service"
)

// Scheduler runs the recurrence sweep on a fixed cadence, independent of
// the listing path.
type Scheduler struct {
	scheduler gocron.Scheduler
	engine    *service.RecurrenceEngine
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a scheduler sweeping every interval.
func New(engine *service.RecurrenceEngine, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		scheduler: s,
		engine:    engine,
		interval:  interval,
		logger:    logger,
	}, nil
}

// Start registers the sweep job and starts the scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.runSweep),
		gocron.WithName("recurrence-sweep"),
	)
	if err != nil {
		return err
	}
	s.scheduler.Start()
	s.logger.Info("Recurrence sweep scheduler started", "interval", s.interval)
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep to finish.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	materialized, err := s.engine.SweepDue(ctx)
	if err != nil {
		s.logger.Error("scheduled recurrence sweep failed", "error", err)
		return
	}
	if materialized > 0 {
		s.logger.Info("scheduled recurrence sweep done", "materialized", materialized)
	}
}
