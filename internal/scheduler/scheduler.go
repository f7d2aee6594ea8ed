package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobbeacon/internal/model"
	"github.com/amishk599/jobbeacon/internal/pipeline"
)

// DefaultSpec runs the batch hourly.
const DefaultSpec = "@every 1h"

// Job is one scheduled batch.
type Job interface {
	Run(ctx context.Context) (model.RunSummary, error)
}

// Scheduler runs a Job once at startup and then on a cron spec.
type Scheduler struct {
	job    Job
	spec   string
	logger *slog.Logger
}

// New validates spec and returns a Scheduler. An empty spec means DefaultSpec.
func New(job Job, spec string, logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{job: job, spec: spec, logger: logger}, nil
}

// Run blocks until ctx is cancelled. A tick that fires while the previous run
// is still going is skipped. On shutdown it waits for the active run.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.logger.Info("starting scheduler", "schedule", s.spec)
	c.Start()

	// First run happens right away so the feed is populated without waiting
	// for the first tick.
	s.runOnce(ctx)

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.job.Run(ctx); err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			s.logger.Warn("previous run still active, skipping")
			return
		}
		s.logger.Error("run failed", "error", err)
	}
}

// cronLogger bridges cron's logger to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
