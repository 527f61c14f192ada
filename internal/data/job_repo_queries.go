package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/ncdist/rw-automator/internal/domain/model"
	apperrors "github.com/ncdist/rw-automator/internal/errors"
)

const (
	defaultHistoryPerPage = 50
	maxHistoryPerPage     = 200
)

// History returns one page of job history, newest request first, with
// optional filters on order number substring, status, and request window.
func (r *JobRepo) History(ctx context.Context, opts model.JobHistoryOptions) (*model.JobHistoryPage, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = defaultHistoryPerPage
	}
	if perPage > maxHistoryPerPage {
		perPage = maxHistoryPerPage
	}

	where, args := buildHistoryFilter(opts)

	var total int
	countQuery := `SELECT COUNT(*) FROM automation_jobs` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, apperrors.Persistence(apperrors.MapDBError(err), "count job history")
	}

	offset := (page - 1) * perPage
	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM automation_jobs%s
		ORDER BY requested_at DESC
		OFFSET $%d LIMIT $%d`, jobColumns, where, len(args)+1, len(args)+2)

	rows, err := r.DB.QueryContext(ctx, dataQuery, append(args, offset, perPage)...)
	if err != nil {
		return nil, apperrors.Persistence(apperrors.MapDBError(err), "query job history")
	}
	defer rows.Close()

	jobs := make([]*model.Job, 0, perPage)
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, apperrors.Persistence(scanErr, "scan history job")
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.Persistence(rowsErr, "iterate job history")
	}

	return &model.JobHistoryPage{
		Jobs:       jobs,
		Pagination: model.NewPagination(page, perPage, total),
	}, nil
}

func buildHistoryFilter(opts model.JobHistoryOptions) (string, []any) {
	var clauses []string
	var args []any

	next := func() int { return len(args) + 1 }

	if opts.OrderNumber != "" {
		clauses = append(clauses, fmt.Sprintf("order_number LIKE $%d", next()))
		args = append(args, "%"+opts.OrderNumber+"%")
	}
	if opts.Status != nil {
		clauses = append(clauses, fmt.Sprintf("status = $%d", next()))
		args = append(args, *opts.Status)
	}
	if opts.StartDate != nil {
		clauses = append(clauses, fmt.Sprintf("requested_at >= $%d", next()))
		args = append(args, *opts.StartDate)
	}
	if opts.EndDate != nil {
		clauses = append(clauses, fmt.Sprintf("requested_at <= $%d", next()))
		args = append(args, *opts.EndDate)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
