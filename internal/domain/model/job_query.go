package model

import "time"

// JobHistoryOptions groups filters and pagination for the job history query.
type JobHistoryOptions struct {
	Page        int        // 1-based page number
	PerPage     int        // rows per page
	OrderNumber string     // optional substring match on order_number
	Status      *JobStatus // optional exact status filter
	StartDate   *time.Time // optional requested_at lower bound (inclusive)
	EndDate     *time.Time // optional requested_at upper bound; extended to end of day by the caller
}

// Pagination is the page metadata returned alongside history rows.
type Pagination struct {
	Page         int  `json:"page"`
	PerPage      int  `json:"per_page"`
	TotalRecords int  `json:"total_records"`
	TotalPages   int  `json:"total_pages"`
	HasPrev      bool `json:"has_prev"`
	HasNext      bool `json:"has_next"`
}

// JobHistoryPage is one page of job history plus its pagination metadata.
type JobHistoryPage struct {
	Jobs       []*Job     `json:"jobs"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination computes page metadata from a total record count.
func NewPagination(page, perPage, totalRecords int) Pagination {
	totalPages := (totalRecords + perPage - 1) / perPage
	return Pagination{
		Page:         page,
		PerPage:      perPage,
		TotalRecords: totalRecords,
		TotalPages:   totalPages,
		HasPrev:      page > 1,
		HasNext:      page < totalPages,
	}
}
