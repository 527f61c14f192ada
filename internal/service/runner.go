package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ncdist/rw-automator/internal/core"
	"github.com/ncdist/rw-automator/internal/data"
	"github.com/ncdist/rw-automator/internal/domain/model"
	"github.com/ncdist/rw-automator/internal/observability/metrics"
	"github.com/ncdist/rw-automator/internal/observability/statsd"
	"github.com/ncdist/rw-automator/internal/transcript"
)

// TranscriptProcess names the reset procedure in transcript file names.
const TranscriptProcess = "resetOrder"

// RunnerOptions groups dependencies for RunnerService.
type RunnerOptions struct {
	Engine      core.OrderResetter // Required: terminal session engine
	Store       core.JobStore      // Optional: job store, omitted for ad-hoc CLI runs
	Transcripts *transcript.Store  // Optional: transcript file store
	Logger      *slog.Logger       // Optional: structured logger
	Metrics     statsd.Sink        // Optional: metric sink
}

// RunnerService executes one order reset end to end: lifecycle bookkeeping in
// the job store, one terminal session through the engine, and projection of
// the session outcome back onto the job record.
type RunnerService struct {
	engine      core.OrderResetter
	store       core.JobStore
	transcripts *transcript.Store
	logger      *slog.Logger
	metrics     statsd.Sink
}

// NewRunnerService constructs a new RunnerService.
func NewRunnerService(opts RunnerOptions) (*RunnerService, error) {
	if opts.Engine == nil {
		return nil, errors.New("OrderResetter is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "runner")
	}

	return &RunnerService{
		engine:      opts.Engine,
		store:       opts.Store,
		transcripts: opts.Transcripts,
		logger:      logger,
		metrics:     opts.Metrics,
	}, nil
}

// ResetRequest identifies one reset to run. JobID may be empty for ad-hoc
// runs that are not tracked in the job store.
type ResetRequest struct {
	JobID              string
	OrderNumber        string
	DistributionCenter string
}

// RunReset performs one reset attempt and returns the session outcome.
//
// When the request carries a job id, the job is moved to processing with an
// attempt increment before the session opens, and the outcome is recorded
// afterwards. Storage faults during bookkeeping are logged and never change
// the returned outcome: the session result is what happened on the terminal,
// whether or not the record of it could be written.
func (s *RunnerService) RunReset(ctx context.Context, req ResetRequest) model.Outcome {
	start := time.Now()

	s.markProcessing(ctx, req)

	sink, logPath := s.openTranscript(ctx, req)
	outcome := s.engine.ResetOrder(ctx, req.OrderNumber, req.DistributionCenter, sink)
	if closer, ok := sink.(io.Closer); ok {
		if err := closer.Close(); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "transcript close failed", "path", logPath, "error", err)
		}
	}

	s.recordOutcome(ctx, req, outcome, logPath)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "reset finished",
			"job_id", req.JobID,
			"order_number", req.OrderNumber,
			"distribution_center", req.DistributionCenter,
			"ok", outcome.OK(),
			"message", outcome.Message,
			"duration", time.Since(start))
	}
	metrics.EmitJobRun(s.metrics, metrics.RunMetric{
		JobType:            string(model.JobTypeResetOrder),
		DistributionCenter: req.DistributionCenter,
		Result:             runResult(outcome),
		Duration:           time.Since(start),
	})

	return outcome
}

func (s *RunnerService) markProcessing(ctx context.Context, req ResetRequest) {
	if req.JobID == "" || s.store == nil {
		return
	}
	err := s.store.UpdateStatus(ctx, data.UpdateStatusParams{
		JobID:             req.JobID,
		Status:            model.JobStatusProcessing,
		IncrementAttempts: true,
	})
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to mark job processing",
			"job_id", req.JobID, "error", err)
	}
}

// openTranscript returns the writer the session logs to and the path that
// will be recorded on the job. Falls back to a discard writer so a transcript
// fault never blocks the reset itself.
func (s *RunnerService) openTranscript(ctx context.Context, req ResetRequest) (io.Writer, string) {
	if s.transcripts == nil {
		return io.Discard, ""
	}
	file, err := s.transcripts.Create(TranscriptProcess, req.DistributionCenter, req.OrderNumber)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "transcript creation failed",
				"order_number", req.OrderNumber, "error", err)
		}
		return io.Discard, ""
	}
	return file, file.Path()
}

func (s *RunnerService) recordOutcome(ctx context.Context, req ResetRequest, outcome model.Outcome, logPath string) {
	if req.JobID == "" || s.store == nil {
		return
	}

	p := data.UpdateStatusParams{JobID: req.JobID}
	if outcome.OK() {
		p.Status = model.JobStatusSuccess
		p.Message = outcome.Message
		p.LogPath = logPath
	} else {
		p.Status = model.JobStatusError
		p.Message = fmt.Sprintf("Reset failed: %s", outcome.Message)
	}

	if err := s.store.UpdateStatus(ctx, p); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to record job outcome",
			"job_id", req.JobID, "status", p.Status, "error", err)
	}
}

func runResult(outcome model.Outcome) string {
	if outcome.OK() {
		return metrics.ResultSuccess
	}
	return metrics.ResultError
}
