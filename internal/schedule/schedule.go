// Package schedule runs a job on a cron schedule. A tick that fires while
// the previous run is still active is skipped.
package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
)

// Job is the work triggered on every tick.
type Job func(ctx context.Context) error

// Scheduler triggers a Job on a standard five-field cron spec or a
// descriptor such as "@daily" or "@every 6h".
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	job      Job
	logger   *zerolog.Logger
}

// New parses spec and creates a scheduler for job.
func New(spec string, job Job, logger *zerolog.Logger) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.NewConfigError("schedule", "invalid cron spec "+spec, err)
	}
	return &Scheduler{
		spec:     spec,
		schedule: sched,
		job:      job,
		logger:   logging.OrNop(logger),
	}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run blocks until ctx is canceled, triggering the job on every tick. It
// waits for a running job to return before returning itself.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	c.Schedule(s.schedule, cron.FuncJob(func() {
		start := time.Now()
		s.logger.Info().Str("spec", s.spec).Msg("Scheduled run starting")
		if err := s.job(ctx); err != nil {
			s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled run failed")
			return
		}
		s.logger.Info().Dur("duration", time.Since(start)).Msg("Scheduled run finished")
	}))

	c.Start()
	s.logger.Info().Str("spec", s.spec).Time("next", s.Next(time.Now())).Msg("Scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
