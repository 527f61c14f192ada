package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ncdist/rw-automator/internal/domain/model"
	apperrors "github.com/ncdist/rw-automator/internal/errors"
)

// Create inserts a new job row with status pending and zero attempts. If this
// returns an error the caller must not assume the job exists.
func (r *JobRepo) Create(ctx context.Context, id string, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var requestedBy *string
	if req.RequestedBy != "" {
		requestedBy = &req.RequestedBy
	}

	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO automation_jobs
		  (job_id, job_type, order_number, distribution_center, requested_by, ticket_number, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		RETURNING `+jobColumns,
		id, req.Type, req.OrderNumber, req.DistributionCenter, requestedBy, req.TicketNumber,
		r.timeProvider.Now())

	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.Persistence(apperrors.MapDBError(err), "insert job")
	}
	return job, nil
}

// GetByID returns the full job record.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM automation_jobs WHERE job_id = $1`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, apperrors.Persistence(apperrors.MapDBError(err), "get job")
	}
	return job, nil
}

// GetStatus returns the publicly observable status projection of a job.
func (r *JobRepo) GetStatus(ctx context.Context, id string) (*model.JobStatusResponse, error) {
	var resp model.JobStatusResponse
	resp.JobID = id
	err := r.DB.QueryRowContext(ctx, `
		SELECT status, result_message, attempts
		FROM automation_jobs
		WHERE job_id = $1`, id).
		Scan(&resp.Status, &resp.Message, &resp.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, apperrors.Persistence(apperrors.MapDBError(err), "get job status")
	}
	return &resp, nil
}

// GetStatuses returns status projections for a set of job ids. Unknown ids
// are simply absent from the result.
func (r *JobRepo) GetStatuses(ctx context.Context, ids []string) ([]*model.JobStatusResponse, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT job_id, status, result_message, attempts
		FROM automation_jobs
		WHERE job_id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return nil, apperrors.Persistence(apperrors.MapDBError(err), "get job statuses")
	}
	defer rows.Close()

	var out []*model.JobStatusResponse
	for rows.Next() {
		var resp model.JobStatusResponse
		if scanErr := rows.Scan(&resp.JobID, &resp.Status, &resp.Message, &resp.Attempts); scanErr != nil {
			return nil, apperrors.Persistence(scanErr, "scan job status")
		}
		out = append(out, &resp)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.Persistence(rowsErr, "iterate job statuses")
	}
	return out, nil
}

// GetPendingWork returns every job that is not terminal, oldest request
// first. Jobs in error are deliberately included: that is the retry
// mechanism, and they keep coming back until they succeed or the attempt
// ceiling forces them to failed.
func (r *JobRepo) GetPendingWork(ctx context.Context) ([]*model.Job, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM automation_jobs
		WHERE status NOT IN ('success', 'failed')
		ORDER BY requested_at ASC`)
	if err != nil {
		return nil, apperrors.Persistence(apperrors.MapDBError(err), "get pending work")
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, apperrors.Persistence(scanErr, "scan pending job")
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.Persistence(rowsErr, "iterate pending work")
	}
	return jobs, nil
}

// UpdateStatusParams groups the inputs for UpdateStatus.
type UpdateStatusParams struct {
	JobID             string
	Status            model.JobStatus
	Message           string
	LogPath           string
	IncrementAttempts bool
}

// UpdateStatus applies one lifecycle update to a job.
//
// Shapes by requested status:
//   - processing: sets started_at, increments attempts when requested
//   - success / error: sets result_message, log_path, completed_at
//   - anything else: plain status set with optional attempt increment
//
// After applying the shape it evaluates the attempt ceiling against the
// job's effective attempt count; a non-success update at or past the ceiling
// is overridden to failed with the ceiling annotation. Updates against jobs
// already in a terminal status are no-ops.
func (r *JobRepo) UpdateStatus(ctx context.Context, p UpdateStatusParams) error {
	if !p.Status.Valid() {
		return apperrors.Validationf("invalid job status %q", p.Status)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Persistence(err, "begin status update")
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.ErrorContext(ctx, "rollback status update", "job_id", p.JobID, "error", rbErr)
		}
	}()

	var current model.JobStatus
	var attempts int
	err = tx.QueryRowContext(ctx,
		`SELECT status, attempts FROM automation_jobs WHERE job_id = $1 FOR UPDATE`, p.JobID).
		Scan(&current, &attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return apperrors.Persistence(apperrors.MapDBError(err), "read job for update")
	}

	if current.Terminal() {
		r.logger.InfoContext(ctx, "ignoring update to terminal job",
			"job_id", p.JobID, "status", current, "requested", p.Status)
		return nil
	}

	now := r.timeProvider.Now()
	if err = r.applyUpdateShape(ctx, tx, p, now); err != nil {
		return err
	}

	effective := attempts
	if p.IncrementAttempts {
		effective++
	}
	if status, message, forced := model.ApplyAttemptCeiling(p.Status, effective, p.Message); forced {
		r.logger.WarnContext(ctx, "attempt ceiling reached, forcing job to failed",
			"job_id", p.JobID, "attempts", effective)
		if _, execErr := tx.ExecContext(ctx, `
			UPDATE automation_jobs
			SET status = $2, result_message = $3, completed_at = $4
			WHERE job_id = $1`,
			p.JobID, status, message, now); execErr != nil {
			return apperrors.Persistence(apperrors.MapDBError(execErr), "escalate job to failed")
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.Persistence(err, "commit status update")
	}
	return nil
}

func (r *JobRepo) applyUpdateShape(ctx context.Context, tx *sql.Tx, p UpdateStatusParams, now time.Time) error {
	var err error
	switch p.Status {
	case model.JobStatusProcessing:
		if p.IncrementAttempts {
			_, err = tx.ExecContext(ctx, `
				UPDATE automation_jobs
				SET status = $2, started_at = $3, attempts = attempts + 1
				WHERE job_id = $1`, p.JobID, p.Status, now)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE automation_jobs
				SET status = $2, started_at = $3
				WHERE job_id = $1`, p.JobID, p.Status, now)
		}
	case model.JobStatusSuccess, model.JobStatusError:
		_, err = tx.ExecContext(ctx, `
			UPDATE automation_jobs
			SET status = $2, result_message = $3, log_path = NULLIF($4, ''), completed_at = $5
			WHERE job_id = $1`, p.JobID, p.Status, p.Message, p.LogPath, now)
	default:
		if p.IncrementAttempts {
			_, err = tx.ExecContext(ctx, `
				UPDATE automation_jobs
				SET status = $2, attempts = attempts + 1
				WHERE job_id = $1`, p.JobID, p.Status)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE automation_jobs
				SET status = $2
				WHERE job_id = $1`, p.JobID, p.Status)
		}
	}
	if err != nil {
		return apperrors.Persistence(apperrors.MapDBError(err), "update job status")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var job model.Job
	err := row.Scan(
		&job.ID,
		&job.Type,
		&job.OrderNumber,
		&job.DistributionCenter,
		&job.RequestedBy,
		&job.TicketNumber,
		&job.Status,
		&job.ResultMessage,
		&job.LogPath,
		&job.Attempts,
		&job.RequestedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
