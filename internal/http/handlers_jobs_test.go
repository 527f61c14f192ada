package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ncdist/rw-automator/internal/data"
	"github.com/ncdist/rw-automator/internal/domain/model"
	"github.com/ncdist/rw-automator/internal/mocks"
	"github.com/ncdist/rw-automator/internal/service"
)

func newHandlersWithMock(t *testing.T) (*JobHandlers, *mocks.MockJobStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockJobStore(ctrl)

	n := 0
	svc := service.MustNewJobService(service.JobServiceOptions{
		Store: store,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	return &JobHandlers{Svc: svc}, store
}

func TestCreateJob_Single(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().Create(gomock.Any(), "id-1", gomock.Any()).Return(&model.Job{
		ID:                 "id-1",
		Type:               model.JobTypeResetOrder,
		OrderNumber:        "408516",
		DistributionCenter: "00",
		Status:             model.JobStatusPending,
	}, nil)

	body := `{"job_type":"reset_order","order_number":"408516","distribution_center":"00"}`
	r := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got CreateJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "id-1", got.JobID)
	assert.Empty(t, got.JobIDs)
	assert.Equal(t, 1, got.Count)
}

func TestCreateJob_Batch(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, id string, req *model.CreateJobRequest) (*model.Job, error) {
			return &model.Job{ID: id, Type: req.Type, OrderNumber: req.OrderNumber}, nil
		}).Times(3)

	body := `{"job_type":"Reset Batch Order","order_number":"111, 222 333","distribution_center":"01"}`
	r := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got CreateJobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Empty(t, got.JobID)
	assert.Equal(t, []string{"id-1", "id-2", "id-3"}, got.JobIDs)
	assert.Equal(t, 3, got.Count)
}

func TestCreateJob_InvalidJSON(t *testing.T) {
	h, _ := newHandlersWithMock(t)

	r := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString("{bad"))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateJob_ValidationError(t *testing.T) {
	h, _ := newHandlersWithMock(t)

	body := `{"job_type":"reset_order","order_number":"","distribution_center":"00"}`
	r := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.CreateJob(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "validation", got["error"])
}

func TestGetJobStatus(t *testing.T) {
	h, store := newHandlersWithMock(t)

	msg := "Reset completed successfully"
	store.EXPECT().GetStatus(gomock.Any(), "job-1").Return(&model.JobStatusResponse{
		JobID:    "job-1",
		Status:   model.JobStatusSuccess,
		Message:  &msg,
		Attempts: 1,
	}, nil)

	mux := http.NewServeMux()
	registerJobRoutes(mux, h)
	r := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1/status", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.JobStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, model.JobStatusSuccess, got.Status)
	require.NotNil(t, got.Message)
	assert.Equal(t, msg, *got.Message)
}

func TestGetJobStatus_NotFound(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().GetStatus(gomock.Any(), "missing").Return(nil, data.ErrJobNotFound)

	mux := http.NewServeMux()
	registerJobRoutes(mux, h)
	r := httptest.NewRequest(http.MethodGet, "/api/jobs/missing/status", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetJobStatuses(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().GetStatuses(gomock.Any(), []string{"a", "b", "gone"}).Return(
		[]*model.JobStatusResponse{
			{JobID: "a", Status: model.JobStatusPending},
			{JobID: "b", Status: model.JobStatusError, Attempts: 2},
		}, nil)

	body := `{"job_ids":["a","b","gone"]}`
	r := httptest.NewRequest(http.MethodPost, "/api/jobs/statuses", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	h.GetJobStatuses(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got BulkStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Statuses, 2)
	assert.Equal(t, "a", got.Statuses[0].JobID)
	assert.Equal(t, 2, got.Statuses[1].Attempts)
}

func TestGetJobStatuses_Empty(t *testing.T) {
	h, _ := newHandlersWithMock(t)

	r := httptest.NewRequest(http.MethodPost, "/api/jobs/statuses", bytes.NewBufferString(`{"job_ids":[]}`))
	w := httptest.NewRecorder()

	h.GetJobStatuses(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetCurrentJobs(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().GetPendingWork(gomock.Any()).Return([]*model.Job{
		{ID: "job-1", OrderNumber: "408516", Status: model.JobStatusPending},
		{ID: "job-2", OrderNumber: "408517", Status: model.JobStatusProcessing, Attempts: 1},
	}, nil)

	mux := http.NewServeMux()
	registerJobRoutes(mux, h)
	r := httptest.NewRequest(http.MethodGet, "/api/jobs/current", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got CurrentJobsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Jobs, 2)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "job-1", got.Jobs[0].ID)
	assert.Equal(t, model.JobStatusProcessing, got.Jobs[1].Status)
}

func TestGetCurrentJobs_EmptyQueue(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().GetPendingWork(gomock.Any()).Return(nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/jobs/current", nil)
	w := httptest.NewRecorder()

	h.GetCurrentJobs(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// An empty queue serializes as an empty list, not null.
	assert.JSONEq(t, `{"jobs":[],"count":0}`, w.Body.String())
}

func TestGetCurrentJobs_StoreError(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().GetPendingWork(gomock.Any()).Return(nil, errors.New("connection refused"))

	r := httptest.NewRequest(http.MethodGet, "/api/jobs/current", nil)
	w := httptest.NewRecorder()

	h.GetCurrentJobs(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetJobHistory(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().History(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, opts model.JobHistoryOptions) (*model.JobHistoryPage, error) {
			assert.Equal(t, 2, opts.Page)
			assert.Equal(t, 25, opts.PerPage)
			assert.Equal(t, "4085", opts.OrderNumber)
			require.NotNil(t, opts.Status)
			assert.Equal(t, model.JobStatusFailed, *opts.Status)
			require.NotNil(t, opts.StartDate)
			assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *opts.StartDate)
			require.NotNil(t, opts.EndDate)
			// The service extends a date-only bound to the end of that day.
			assert.Equal(t, 2024, opts.EndDate.Year())
			assert.Equal(t, 23, opts.EndDate.Hour())
			return &model.JobHistoryPage{
				Jobs:       []*model.Job{{ID: "job-1"}},
				Pagination: model.NewPagination(2, 25, 26),
			}, nil
		})

	target := "/api/jobs/history?page=2&per_page=25&order_number=4085&status=failed&start_date=2024-03-01&end_date=2024-03-31"
	r := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()

	h.GetJobHistory(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.JobHistoryPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, 2, got.Pagination.TotalPages)
	assert.True(t, got.Pagination.HasPrev)
}

func TestGetJobHistory_BadQuery(t *testing.T) {
	h, _ := newHandlersWithMock(t)

	for _, target := range []string{
		"/api/jobs/history?status=bogus",
		"/api/jobs/history?start_date=03-01-2024",
		"/api/jobs/history?end_date=yesterday",
	} {
		r := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()

		h.GetJobHistory(w, r)

		resp := w.Result()
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
}

func TestGetJobHistory_StoreError(t *testing.T) {
	h, store := newHandlersWithMock(t)

	store.EXPECT().History(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	r := httptest.NewRequest(http.MethodGet, "/api/jobs/history", nil)
	w := httptest.NewRecorder()

	h.GetJobHistory(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
