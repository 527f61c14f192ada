// Package httpx provides the HTTP API for creating and querying reset jobs.
package httpx

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ncdist/rw-automator/internal/domain/model"
	"github.com/ncdist/rw-automator/internal/service"
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc *service.JobService
}

// CreateJobResponse reports the jobs created by one request. Batch requests
// fan out into one job per order number.
type CreateJobResponse struct {
	JobID  string   `json:"job_id,omitempty"`
	JobIDs []string `json:"job_ids,omitempty"`
	Count  int      `json:"count"`
}

// CreateJob handles HTTP requests to create new reset jobs.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	jobs, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	resp := CreateJobResponse{Count: len(jobs)}
	if len(jobs) == 1 {
		resp.JobID = jobs[0].ID
	} else {
		resp.JobIDs = make([]string, 0, len(jobs))
		for _, job := range jobs {
			resp.JobIDs = append(resp.JobIDs, job.ID)
		}
	}

	WriteJSON(w, http.StatusCreated, resp)
}

// GetJobStatus handles HTTP requests for one job's current status.
func (h *JobHandlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	status, err := h.Svc.Status(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

// BulkStatusRequest carries the job ids for a bulk status lookup.
type BulkStatusRequest struct {
	JobIDs []string `json:"job_ids"`
}

// BulkStatusResponse carries the statuses found for a bulk lookup. Unknown
// ids are absent rather than erroring the whole request.
type BulkStatusResponse struct {
	Statuses []*model.JobStatusResponse `json:"statuses"`
}

// GetJobStatuses handles HTTP requests for the statuses of several jobs at once.
func (h *JobHandlers) GetJobStatuses(w http.ResponseWriter, r *http.Request) {
	var req BulkStatusRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	statuses, err := h.Svc.BulkStatus(r.Context(), req.JobIDs)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, BulkStatusResponse{Statuses: statuses})
}

// CurrentJobsResponse lists every job still in flight, oldest first.
type CurrentJobsResponse struct {
	Jobs  []*model.Job `json:"jobs"`
	Count int          `json:"count"`
}

// GetCurrentJobs handles HTTP requests for the live queue: all jobs that
// have not yet reached a terminal status.
func (h *JobHandlers) GetCurrentJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Svc.Current(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	WriteJSON(w, http.StatusOK, CurrentJobsResponse{Jobs: jobs, Count: len(jobs)})
}

// GetJobHistory handles HTTP requests for the paginated job history.
func (h *JobHandlers) GetJobHistory(w http.ResponseWriter, r *http.Request) {
	opts, err := historyOptionsFromQuery(r)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_query", Err: err})
		return
	}

	page, err := h.Svc.History(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, page)
}

// historyDateLayout is the wire format for history date filters.
const historyDateLayout = "2006-01-02"

func historyOptionsFromQuery(r *http.Request) (model.JobHistoryOptions, error) {
	q := r.URL.Query()

	opts := model.JobHistoryOptions{
		Page:        parseIntQuery(r, "page", 0),
		PerPage:     parseIntQuery(r, "per_page", 0),
		OrderNumber: q.Get("order_number"),
	}

	if raw := q.Get("status"); raw != "" {
		status := model.JobStatus(raw)
		if !status.Valid() {
			return opts, errors.New("unknown status " + strconv.Quote(raw))
		}
		opts.Status = &status
	}

	start, err := parseDateQuery(q.Get("start_date"))
	if err != nil {
		return opts, err
	}
	opts.StartDate = start

	end, err := parseDateQuery(q.Get("end_date"))
	if err != nil {
		return opts, err
	}
	opts.EndDate = end

	return opts, nil
}

func parseDateQuery(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(historyDateLayout, raw)
	if err != nil {
		return nil, errors.New("dates must use the form YYYY-MM-DD")
	}
	return &t, nil
}

func parseIntQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
