package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultCron runs ten minutes past every hour, after NOAA publishes the
// routine report.
const DefaultCron = "10 * * * *"

// runTimeout bounds a single pipeline run.
const runTimeout = 10 * time.Minute

// Runner is one pass of the fetch, compose and post pipeline.
type Runner interface {
	RunAll(ctx context.Context) error
}

// Scheduler runs the pipeline on a cron expression. Runs never overlap: a
// slow run delays the next one instead of interleaving writes to the store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	expr      string
	logger    *slog.Logger
	job       *gocron.Job
}

func New(expr string, runner Runner, logger *slog.Logger) *Scheduler {
	if expr == "" {
		expr = DefaultCron
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		expr:      expr,
		logger:    logger,
	}
}

// Start schedules the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	job, err := s.scheduler.Cron(s.expr).Do(s.run)
	if err != nil {
		return fmt.Errorf("scheduling %q: %w", s.expr, err)
	}
	s.job = job

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "cron", s.expr, "next_run", job.NextRun())
	return nil
}

// NextRun is the time of the next scheduled run, zero before Start.
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("scheduled run starting")
	if err := s.runner.RunAll(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err, "elapsed", time.Since(start))
		return
	}
	s.logger.Info("scheduled run completed", "elapsed", time.Since(start))
}
