package schedulersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/masomo-calendar/core"
)

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(fmt.Sprintf("cron: %s %v", msg, keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s %v: %v", msg, keysAndValues, err), err)
}

// Scheduler runs recurring jobs. A job is skipped while its previous run is still going
// and panics are recovered and logged.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(logger core.Logger, conf *core.Config) *Scheduler {
	loc := conf.Calendar.Location
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Add schedules job on spec, eg. "@every 1m" or "*/5 * * * *".
func (s *Scheduler) Add(spec string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return errors.Wrapf(err, "scheduling job on %q", spec)
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling new runs and waits for the running ones to complete, or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for running jobs")
	}
}

func (s *Scheduler) Len() int { return len(s.cron.Entries()) }
