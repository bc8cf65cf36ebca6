// Package jobs runs the periodic maintenance tasks of the app.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/services/metrics"
)

type (
	Job struct {
		Name    string
		Spec    string // cron spec, eg. "@every 15m"
		Timeout time.Duration
		Run     func(ctx context.Context) error
	}

	Scheduler struct {
		cron   *cron.Cron
		logger core.Logger
		jobs   map[string]Job
	}
)

var ErrUnknownJob = errors.New("unknown job")

func NewScheduler(logger core.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
		jobs:   make(map[string]Job),
	}
}

// Add schedules job. Jobs with the same name replace each other in RunNow, not in the schedule.
func (s *Scheduler) Add(job Job) error {
	if _, err := s.cron.AddFunc(job.Spec, func() { _ = s.run(context.Background(), job) }); err != nil {
		return errors.Wrapf(err, "scheduling %s", job.Name)
	}
	s.jobs[job.Name] = job
	return nil
}

// RunNow runs the named job synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return errors.Wrap(ErrUnknownJob, name)
	}
	return s.run(ctx, job)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(ctx)
	metrics.RecordJobRun(job.Name, time.Since(start), err == nil)
	if err != nil {
		s.logger.Error(fmt.Sprintf("job %s: %v", job.Name, err), err)
	}
	return err
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts a core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "wake" || msg == "run" || msg == "schedule" || msg == "added" {
		return // too chatty
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{err}, keysAndValues...)...)
}
