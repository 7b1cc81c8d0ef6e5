package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper is anything that can drop expired entries.
type Sweeper interface {
	Sweep() int
}

// Scheduler periodically sweeps idle dashboard sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		logger:    logger.With(slog.String("component", "scheduler")),
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce() {
	if removed := s.sweeper.Sweep(); removed > 0 {
		s.logger.Info("swept idle sessions", slog.Int("removed", removed))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
