package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ncdist/rw-automator/internal/domain/model"
	apperrors "github.com/ncdist/rw-automator/internal/errors"
	"github.com/ncdist/rw-automator/internal/mocks"
	"github.com/ncdist/rw-automator/internal/testutil"
)

func newTestJobService(t *testing.T) (*JobService, *mocks.MockJobStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockJobStore(ctrl)

	seq := 0
	svc := MustNewJobService(JobServiceOptions{
		Store: store,
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	})
	return svc, store
}

func TestNewJobService(t *testing.T) {
	_, err := NewJobService(JobServiceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JobStore is required")
}

func TestJobService_Create_Single(t *testing.T) {
	svc, store := newTestJobService(t)
	ctx := context.Background()

	store.EXPECT().
		Create(gomock.Any(), "id-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, id string, req *model.CreateJobRequest) (*model.Job, error) {
			assert.Equal(t, model.JobTypeResetOrder, req.Type)
			assert.Equal(t, "408516", req.OrderNumber)
			return &model.Job{ID: id, Type: req.Type, OrderNumber: req.OrderNumber, Status: model.JobStatusPending}, nil
		})

	jobs, err := svc.Create(ctx, testutil.NewJobRequest().Build())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "id-1", jobs[0].ID)
}

func TestJobService_Create_SingleNormalizesLegacyType(t *testing.T) {
	svc, store := newTestJobService(t)

	store.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string, req *model.CreateJobRequest) (*model.Job, error) {
			assert.Equal(t, model.JobTypeResetOrder, req.Type)
			return &model.Job{ID: id, Type: req.Type}, nil
		})

	_, err := svc.Create(context.Background(),
		testutil.NewJobRequest().WithType(model.JobTypeResetSingleOrder).Build())
	require.NoError(t, err)
}

func TestJobService_Create_BatchFanOut(t *testing.T) {
	svc, store := newTestJobService(t)
	ctx := context.Background()

	var orders []string
	store.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string, req *model.CreateJobRequest) (*model.Job, error) {
			assert.Equal(t, model.JobTypeResetOrder, req.Type)
			assert.Equal(t, "04", req.DistributionCenter)
			assert.Equal(t, "INC42", req.TicketNumber)
			orders = append(orders, req.OrderNumber)
			return &model.Job{ID: id, OrderNumber: req.OrderNumber}, nil
		}).
		Times(3)

	jobs, err := svc.Create(ctx, testutil.NewJobRequest().
		WithType(model.JobTypeResetBatchOrder).
		WithOrderNumber("111, 222\n333").
		WithDistributionCenter("04").
		WithTicketNumber("INC42").
		Build())
	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	assert.Equal(t, []string{"111", "222", "333"}, orders)
}

func TestJobService_Create_BatchPartialFailure(t *testing.T) {
	svc, store := newTestJobService(t)
	ctx := context.Background()

	gomock.InOrder(
		store.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&model.Job{ID: "id-1", OrderNumber: "111"}, nil),
		store.EXPECT().
			Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, apperrors.Persistence(errors.New("connection reset"), "insert job")),
	)

	jobs, err := svc.Create(ctx, testutil.NewJobRequest().
		WithType(model.JobTypeResetBatchOrder).
		WithOrderNumber("111,222,333").
		Build())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order 222")
	// The caller learns how many jobs made it in before the fault.
	require.Len(t, jobs, 1)
	assert.Equal(t, "id-1", jobs[0].ID)
}

func TestJobService_Create_Invalid(t *testing.T) {
	svc, _ := newTestJobService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Create(ctx, testutil.NewJobRequest().WithDistributionCenter("77").Build())
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Create(ctx, testutil.NewJobRequest().
		WithType(model.JobTypeResetBatchOrder).
		WithOrderNumber(" , ,").
		Build())
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestJobService_Status(t *testing.T) {
	svc, store := newTestJobService(t)
	ctx := context.Background()

	store.EXPECT().
		GetStatus(gomock.Any(), "job-1").
		Return(&model.JobStatusResponse{JobID: "job-1", Status: model.JobStatusPending}, nil)

	status, err := svc.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, status.Status)

	_, err = svc.Status(ctx, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestJobService_BulkStatus(t *testing.T) {
	svc, store := newTestJobService(t)
	ctx := context.Background()

	store.EXPECT().
		GetStatuses(gomock.Any(), []string{"a", "b"}).
		Return([]*model.JobStatusResponse{{JobID: "a"}, {JobID: "b"}}, nil)

	statuses, err := svc.BulkStatus(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, statuses, 2)

	_, err = svc.BulkStatus(ctx, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	tooMany := make([]string, maxBulkStatusIDs+1)
	_, err = svc.BulkStatus(ctx, tooMany)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many job ids")
}

func TestJobService_History_ExtendsEndDate(t *testing.T) {
	svc, store := newTestJobService(t)
	ctx := context.Background()

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	store.EXPECT().
		History(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts model.JobHistoryOptions) (*model.JobHistoryPage, error) {
			require.NotNil(t, opts.EndDate)
			assert.Equal(t, 23, opts.EndDate.Hour())
			assert.Equal(t, day.Day(), opts.EndDate.Day())
			return &model.JobHistoryPage{}, nil
		})

	_, err := svc.History(ctx, model.JobHistoryOptions{EndDate: &day})
	require.NoError(t, err)
}

func TestJobService_History_KeepsPreciseEndDate(t *testing.T) {
	svc, store := newTestJobService(t)
	ctx := context.Background()

	precise := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)

	store.EXPECT().
		History(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts model.JobHistoryOptions) (*model.JobHistoryPage, error) {
			require.NotNil(t, opts.EndDate)
			assert.True(t, opts.EndDate.Equal(precise))
			return &model.JobHistoryPage{}, nil
		})

	_, err := svc.History(ctx, model.JobHistoryOptions{EndDate: &precise})
	require.NoError(t, err)
}
