// Package service provides the business logic layer for the automation
// service: job creation and queries, and the reset runner that drives one
// terminal session per job.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ncdist/rw-automator/internal/core"
	"github.com/ncdist/rw-automator/internal/domain/model"
	apperrors "github.com/ncdist/rw-automator/internal/errors"
)

// maxBulkStatusIDs bounds the bulk status endpoint to keep the IN clause sane.
const maxBulkStatusIDs = 200

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Store  core.JobStore  // Required: durable job store
	Logger *slog.Logger   // Optional: structured logger
	NewID  func() string  // Optional: job id generator, defaults to UUIDv4
}

// JobService provides business logic for creating and querying reset jobs.
type JobService struct {
	store  core.JobStore
	logger *slog.Logger
	newID  func() string
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}

	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{
		store:  opts.Store,
		logger: logger,
		newID:  newID,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Create registers one or more reset jobs for the request. A batch request
// fans out into one job per order number at creation time; every child job
// carries the canonical reset_order type and the shared DC, requester, and
// ticket fields. Returns the jobs actually created; on a mid-batch storage
// fault the jobs created so far are returned together with the error.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) ([]*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	orders := []string{req.OrderNumber}
	if req.Type.Batch() {
		orders = model.SplitOrderNumbers(req.OrderNumber)
		if len(orders) == 0 {
			return nil, apperrors.Validation("batch request contains no order numbers")
		}
	}

	created := make([]*model.Job, 0, len(orders))
	for _, order := range orders {
		childReq := &model.CreateJobRequest{
			Type:               model.JobTypeResetOrder,
			OrderNumber:        order,
			DistributionCenter: req.DistributionCenter,
			RequestedBy:        req.RequestedBy,
			TicketNumber:       req.TicketNumber,
		}
		job, err := s.store.Create(ctx, s.newID(), childReq)
		if err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "job creation failed",
					"order_number", order, "created_so_far", len(created), "error", err)
			}
			return created, fmt.Errorf("create job for order %s: %w", order, err)
		}
		created = append(created, job)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "jobs created",
			"count", len(created),
			"distribution_center", req.DistributionCenter,
			"batch", req.Type.Batch())
	}
	return created, nil
}

// Status returns the status projection for one job.
func (s *JobService) Status(ctx context.Context, id string) (*model.JobStatusResponse, error) {
	if id == "" {
		return nil, apperrors.Validation("job id is required")
	}
	return s.store.GetStatus(ctx, id)
}

// BulkStatus returns status projections for a list of job ids. Unknown ids
// are absent from the result rather than errors.
func (s *JobService) BulkStatus(ctx context.Context, ids []string) ([]*model.JobStatusResponse, error) {
	if len(ids) == 0 {
		return nil, apperrors.Validation("at least one job id is required")
	}
	if len(ids) > maxBulkStatusIDs {
		return nil, apperrors.Validationf("too many job ids: %d (max %d)", len(ids), maxBulkStatusIDs)
	}
	return s.store.GetStatuses(ctx, ids)
}

// Current returns every job that has not yet reached a terminal status,
// oldest first. This is the live queue view: pending work plus anything a
// dispatcher is mid-flight on.
func (s *JobService) Current(ctx context.Context) ([]*model.Job, error) {
	return s.store.GetPendingWork(ctx)
}

// History returns one page of job history. A date-only end filter is
// extended to the end of that day so "to 2024-01-05" includes jobs requested
// any time on the 5th.
func (s *JobService) History(ctx context.Context, opts model.JobHistoryOptions) (*model.JobHistoryPage, error) {
	if opts.EndDate != nil {
		end := *opts.EndDate
		if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 && end.Nanosecond() == 0 {
			end = end.Add(24*time.Hour - time.Nanosecond)
			opts.EndDate = &end
		}
	}
	return s.store.History(ctx, opts)
}
