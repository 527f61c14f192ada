// Package dispatcher provides the polling loop that discovers runnable jobs
// and executes them sequentially.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ncdist/rw-automator/internal/core"
	"github.com/ncdist/rw-automator/internal/domain/model"
	"github.com/ncdist/rw-automator/internal/observability/metrics"
	"github.com/ncdist/rw-automator/internal/observability/statsd"
	"github.com/ncdist/rw-automator/internal/service"
)

// Default intervals applied when options leave them unset.
const (
	DefaultPollInterval = 3 * time.Second
	DefaultErrorBackoff = 5 * time.Second
)

// Runner polls the job store and runs each runnable reset job to completion
// before picking up the next one. Execution is strictly sequential: the
// remote terminal serializes sessions by shared login credentials, so at most
// one automation session may be open at a time. For the same reason exactly
// one dispatcher instance may run against a given database; the
// skip-if-processing check below guards against double launch within one
// poll batch only, not across processes.
type Runner struct {
	store        core.JobStore
	runner       *service.RunnerService
	pollInterval time.Duration
	errorBackoff time.Duration
	logger       *slog.Logger
	metrics      statsd.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Store        core.JobStore          // Required: source of pending work
	Runner       *service.RunnerService // Required: executes one reset per job
	PollInterval time.Duration          // Optional: sleep between poll cycles
	ErrorBackoff time.Duration          // Optional: sleep after a failed poll
	Logger       *slog.Logger           // Optional: structured logger
	Metrics      statsd.Sink            // Optional: metric sink
}

// NewRunner creates a new dispatcher runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "dispatcher")
	}

	return &Runner{
		store:        opts.Store,
		runner:       opts.Runner,
		pollInterval: opts.PollInterval,
		errorBackoff: opts.ErrorBackoff,
		logger:       logger,
		metrics:      opts.Metrics,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Store == nil {
		return errors.New("job store is required")
	}
	if opts.Runner == nil {
		return errors.New("runner service is required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = DefaultErrorBackoff
	}
	if opts.ErrorBackoff < opts.PollInterval {
		opts.ErrorBackoff = opts.PollInterval
	}
	return nil
}

// Run starts the dispatcher loop and runs until the context is cancelled.
// A failed poll never stops the loop; it is logged and followed by the
// longer error back-off before the next cycle.
func (r *Runner) Run(ctx context.Context) error {
	if r.logger != nil {
		r.logger.InfoContext(ctx, "dispatcher started",
			"poll_interval", r.pollInterval,
			"error_backoff", r.errorBackoff)
	}

	for {
		wait := r.pollInterval
		if err := r.pollOnce(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.stop(ctxErr)
			}
			if r.logger != nil {
				r.logger.ErrorContext(ctx, "poll cycle failed", "error", err)
			}
			wait = r.errorBackoff
		}

		select {
		case <-ctx.Done():
			return r.stop(ctx.Err())
		case <-time.After(wait):
		}
	}
}

func (r *Runner) stop(err error) error {
	if r.logger != nil {
		r.logger.Info("dispatcher stopping", "reason", err)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pollOnce fetches the current pending set and runs every runnable job in it
// to completion, oldest request first.
func (r *Runner) pollOnce(ctx context.Context) error {
	jobs, err := r.store.GetPendingWork(ctx)
	metrics.EmitPollCycle(r.metrics, len(jobs), err)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if job.Status == model.JobStatusProcessing {
			// Snapshot taken at poll time; the row is already mid-run.
			if r.logger != nil {
				r.logger.DebugContext(ctx, "skipping job already processing", "job_id", job.ID)
			}
			continue
		}
		if !job.Type.Valid() {
			if r.logger != nil {
				r.logger.WarnContext(ctx, "skipping job with unhandled type",
					"job_id", job.ID, "job_type", string(job.Type))
			}
			continue
		}

		r.runJob(ctx, job)
	}

	return nil
}

func (r *Runner) runJob(ctx context.Context, job *model.Job) {
	if r.logger != nil {
		r.logger.InfoContext(ctx, "dispatching job",
			"job_id", job.ID,
			"job_type", string(job.Type),
			"order_number", job.OrderNumber,
			"distribution_center", job.DistributionCenter,
			"attempts", job.Attempts)
	}

	outcome := r.runner.RunReset(ctx, service.ResetRequest{
		JobID:              job.ID,
		OrderNumber:        job.OrderNumber,
		DistributionCenter: job.DistributionCenter,
	})

	if r.logger != nil {
		r.logger.InfoContext(ctx, "job finished",
			"job_id", job.ID,
			"ok", outcome.OK(),
			"message", outcome.Message)
	}
}
