// Package scheduler runs the background maintenance jobs: the inactive
// session sweep, the invitation expiry sweep, and the stats broadcast.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic task. Errors are logged, never fatal.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs registered jobs on their own tickers. Each job runs once at
// start so a restart does not wait a full interval for the first sweep.
type Scheduler struct {
	logger *slog.Logger
	jobs   []Job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.jobs = append(s.jobs, Job{Name: name, Interval: interval, Run: run})
}

// Start launches every registered job.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, job)
	}

	s.logger.Info("Scheduler started", "jobs", len(s.jobs))
}

// Stop cancels all jobs and waits for them to return.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.invoke(ctx, job)

	for {
		select {
		case <-ticker.C:
			s.invoke(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) invoke(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	if err := job.Run(ctx); err != nil {
		s.logger.Warn("Scheduled job failed", "job", job.Name, "error", err)
	}
}
