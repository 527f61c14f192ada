// Package core defines the contracts between the service layer and its
// collaborators. Service implementations depend on these interfaces, not on
// concrete repository or engine types.
package core

import (
	"context"
	"io"

	"github.com/ncdist/rw-automator/internal/data"
	"github.com/ncdist/rw-automator/internal/domain/model"
)

// JobStore defines the interface for durable job data operations.
type JobStore interface {
	Create(ctx context.Context, id string, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	GetStatus(ctx context.Context, id string) (*model.JobStatusResponse, error)
	GetStatuses(ctx context.Context, ids []string) ([]*model.JobStatusResponse, error)
	GetPendingWork(ctx context.Context) ([]*model.Job, error)
	UpdateStatus(ctx context.Context, p data.UpdateStatusParams) error
	History(ctx context.Context, opts model.JobHistoryOptions) (*model.JobHistoryPage, error)
}

// OrderResetter drives one terminal session that resets a single order.
type OrderResetter interface {
	ResetOrder(ctx context.Context, orderNumber, dc string, transcript io.Writer) model.Outcome
}
