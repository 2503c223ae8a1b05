// Package scheduler runs named jobs on cron schedules.
package scheduler

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrStopTimeout is returned by Stop when running jobs outlive the grace period.
var ErrStopTimeout = errors.New("scheduler: jobs still running after grace period")

// Job is a unit of scheduled work.
type Job interface {
	Run() error
	Name() string
}

// Func adapts a function to Job.
type Func struct {
	JobName string
	Fn      func() error
}

func (f Func) Run() error   { return f.Fn() }
func (f Func) Name() string { return f.JobName }

// Scheduler wraps a cron runner and logs every job outcome.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New returns a stopped scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Debug().Msg("scheduler started")
}

// Stop prevents new runs and waits up to grace for running jobs.
func (s *Scheduler) Stop(grace time.Duration) error {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		s.log.Debug().Msg("scheduler stopped")
		return nil
	case <-time.After(grace):
		return ErrStopTimeout
	}
}

// Every registers job to run at a fixed interval.
func (s *Scheduler) Every(interval time.Duration, job Job) error {
	return s.AddJob("@every "+interval.String(), job)
}

// AddJob registers job with a cron schedule such as "@hourly" or
// "0 9 * * MON-FRI".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Debug().Str("job", job.Name()).Msg("running job")
		if err := job.Run(); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
			return
		}
		s.log.Debug().Str("job", job.Name()).Msg("job completed")
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// RunNow executes job outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Debug().Str("job", job.Name()).Msg("running job immediately")
	return job.Run()
}
