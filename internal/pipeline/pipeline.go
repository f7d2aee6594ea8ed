// Package pipeline runs one ingest-and-notify batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/amishk599/jobbeacon/internal/dispatch"
	"github.com/amishk599/jobbeacon/internal/ingest"
	"github.com/amishk599/jobbeacon/internal/model"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Summary counts one run.
type Summary = model.RunSummary

// Ingester performs the ingestion half of a run.
type Ingester interface {
	Run(ctx context.Context) (ingest.Result, error)
}

// Notifier performs the notification half of a run.
type Notifier interface {
	Pending(ctx context.Context) ([]model.NotificationUnit, error)
	Deliver(ctx context.Context, units []model.NotificationUnit) dispatch.Outcome
}

// Reporter publishes a run summary somewhere humans can see it.
type Reporter interface {
	Report(ctx context.Context, sum Summary) error
}

// Runner sequences ingestion and notification. At most one run is active at a
// time.
type Runner struct {
	ingester Ingester
	notifier Notifier
	reporter Reporter
	logger   *slog.Logger
	running  atomic.Bool
	now      func() time.Time
}

// NewRunner creates a Runner. reporter may be nil.
func NewRunner(ingester Ingester, notifier Notifier, reporter Reporter, logger *slog.Logger) *Runner {
	return &Runner{
		ingester: ingester,
		notifier: notifier,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one batch. When ingestion adds nothing, notification is
// skipped. A summary is returned even when every source or delivery failed;
// the error is non-nil only for store failures or an overlapping run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Summary{}, ErrRunInProgress
	}
	defer r.running.Store(false)

	sum := Summary{StartedAt: r.now()}

	res, err := r.ingester.Run(ctx)
	sum.Fetched = res.Fetched
	sum.Added = res.Added
	sum.Duplicates = res.Duplicates
	if err != nil {
		return sum, fmt.Errorf("ingesting: %w", err)
	}

	if res.Added > 0 {
		units, err := r.notifier.Pending(ctx)
		if err != nil {
			return sum, fmt.Errorf("collecting notifications: %w", err)
		}
		out := r.notifier.Deliver(ctx, units)
		sum.Notified = out.Succeeded
		sum.Failed = out.Failed
	} else {
		r.logger.Info("no new postings, skipping notifications")
	}

	sum.Duration = r.now().Sub(sum.StartedAt)
	r.logger.Info("run complete",
		"fetched", sum.Fetched,
		"added", sum.Added,
		"duplicates", sum.Duplicates,
		"notified", sum.Notified,
		"failed", sum.Failed,
		"duration", sum.Duration.Round(time.Millisecond),
	)

	if r.reporter != nil {
		if err := r.reporter.Report(ctx, sum); err != nil {
			r.logger.Warn("reporting run summary failed", "error", err)
		}
	}
	return sum, nil
}
