// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named piece of work fired on a cron schedule. An empty Schedule
// disables the job.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler fires jobs on their cron schedules. A job still running when
// its next tick comes is skipped for that tick.
type Scheduler struct {
	ctx  context.Context
	jobs []Job
	cron *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field, plus descriptors such as
// "@every 5m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler. Jobs run with ctx.
func New(ctx context.Context, jobs ...Job) *Scheduler {
	return &Scheduler{
		ctx:  ctx,
		jobs: jobs,
		cron: newCron(),
	}
}

func newCron() *cron.Cron {
	return cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
}

// Validate checks every enabled job's schedule.
func Validate(jobs ...Job) error {
	for _, job := range jobs {
		if job.Schedule == "" {
			continue
		}
		if _, err := cronParser.Parse(job.Schedule); err != nil {
			return fmt.Errorf("job %s: invalid schedule %q: %w", job.Name, job.Schedule, err)
		}
	}
	return nil
}

// Start registers the enabled jobs and starts the cron ticker.
func (s *Scheduler) Start() error {
	if err := Validate(s.jobs...); err != nil {
		return err
	}

	for _, job := range s.jobs {
		if job.Schedule == "" {
			slog.Info("job disabled", "name", job.Name)
			continue
		}
		if _, err := s.cron.AddFunc(job.Schedule, s.wrap(job)); err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
		slog.Info("scheduled job", "name", job.Name, "schedule", job.Schedule)
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		if s.ctx.Err() != nil {
			return
		}
		started := time.Now()
		slog.Debug("cron firing job", "name", job.Name)
		if err := job.Run(s.ctx); err != nil {
			slog.Error("job failed", "name", job.Name, "duration", time.Since(started).String(), "error", err)
			return
		}
		slog.Debug("job complete", "name", job.Name, "duration", time.Since(started).String())
	}
}

// Stop stops the cron ticker and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
