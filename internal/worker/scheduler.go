package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the refresh job on a cron schedule. A run that is still in
// progress when the next one fires causes that tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// Runner is the work executed on every tick.
type Runner interface {
	Run(ctx context.Context) *RefreshResult
}

// NewScheduler schedules job with spec, a standard five-field cron expression
// or a descriptor such as "@every 5m". An empty spec uses DefaultSchedule.
func NewScheduler(ctx context.Context, spec string, job Runner, logger zerolog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}

	cronLogger := cronLogger{logger: logger}
	c := cron.New(cron.WithLogger(cronLogger), cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	if _, err := c.AddFunc(spec, func() { job.Run(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	logger.Info().Str("schedule", spec).Msg("refresh job scheduled")
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("refresh job still running at shutdown")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
