// Package model defines the core data types for the RealWorld automation job system.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType identifies which automation a job runs.
type JobType string

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	// JobTypeResetOrder is the canonical single order reset job type.
	JobTypeResetOrder JobType = "reset_order"
	// JobTypeResetOrderLegacy is accepted for compatibility with older dashboard builds.
	JobTypeResetOrderLegacy JobType = "ResetOrder"
	// JobTypeResetSingleOrder is the dashboard's display form of a single reset.
	JobTypeResetSingleOrder JobType = "Reset Single Order"
	// JobTypeResetBatchOrder fans out to one reset_order job per order number at creation.
	JobTypeResetBatchOrder JobType = "Reset Batch Order"

	// JobStatusPending indicates a job is waiting to be picked up.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates a job is mid-run.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusSuccess indicates the reset completed. Terminal.
	JobStatusSuccess JobStatus = "success"
	// JobStatusError indicates a failed attempt that is still eligible for retry.
	JobStatusError JobStatus = "error"
	// JobStatusFailed indicates the attempt budget is exhausted. Terminal.
	JobStatusFailed JobStatus = "failed"
)

// MaxAttempts is the attempt ceiling: once a job has been picked up this many
// times without succeeding, it is forced to failed.
const MaxAttempts = 3

// MaxAttemptsAnnotation is appended to the result message when the ceiling is hit.
const MaxAttemptsAnnotation = "Maximum attempts (3) reached."

// ResetJobTypes lists all job types handled by the reset-order runner.
func ResetJobTypes() []JobType {
	return []JobType{
		JobTypeResetOrder,
		JobTypeResetOrderLegacy,
		JobTypeResetSingleOrder,
		JobTypeResetBatchOrder,
	}
}

// Valid returns true if the JobType belongs to the reset-order family.
func (t JobType) Valid() bool {
	for _, rt := range ResetJobTypes() {
		if t == rt {
			return true
		}
	}
	return false
}

// Batch returns true for job types whose order-number field holds a delimited list.
func (t JobType) Batch() bool {
	return t == JobTypeResetBatchOrder
}

// Valid returns true if the JobStatus is one of the five lifecycle states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusSuccess, JobStatusError, JobStatusFailed:
		return true
	}
	return false
}

// Terminal returns true for statuses that never change again once recorded.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// ApplyAttemptCeiling is the escalation transition: given the status an update
// wants to record and the job's effective attempt count (after any increment
// the same update performs), it returns the status that must actually be
// persisted. Any non-success status at or beyond the ceiling becomes failed,
// and the result message gains the ceiling annotation.
func ApplyAttemptCeiling(requested JobStatus, attempts int, message string) (JobStatus, string, bool) {
	if attempts < MaxAttempts || requested == JobStatusSuccess {
		return requested, message, false
	}
	if message != "" {
		message = message + " " + MaxAttemptsAnnotation
	} else {
		message = MaxAttemptsAnnotation
	}
	return JobStatusFailed, message, true
}

// Job is one durable request to reset an order, tracked through its lifecycle.
type Job struct {
	ID                 string     `json:"job_id"                 db:"job_id"`
	Type               JobType    `json:"job_type"               db:"job_type"`
	OrderNumber        string     `json:"order_number"           db:"order_number"`
	DistributionCenter string     `json:"distribution_center"    db:"distribution_center"`
	RequestedBy        *string    `json:"requested_by"           db:"requested_by"`
	TicketNumber       string     `json:"ticket_number"          db:"ticket_number"`
	Status             JobStatus  `json:"status"                 db:"status"`
	ResultMessage      *string    `json:"result_message"         db:"result_message"`
	LogPath            *string    `json:"log_path,omitempty"     db:"log_path"`
	Attempts           int        `json:"attempts"               db:"attempts"`
	RequestedAt        time.Time  `json:"requested_at"           db:"requested_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"   db:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// CreateJobRequest carries the fields the dashboard supplies when creating jobs.
type CreateJobRequest struct {
	Type               JobType `json:"job_type"`
	OrderNumber        string  `json:"order_number"`
	DistributionCenter string  `json:"distribution_center"`
	RequestedBy        string  `json:"requested_by,omitempty"`
	TicketNumber       string  `json:"ticket_number,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("invalid job type %q", r.Type)
	}
	if strings.TrimSpace(r.OrderNumber) == "" {
		return errors.New("order number is required")
	}
	if !ValidDistributionCenter(r.DistributionCenter) {
		return fmt.Errorf("invalid distribution center %q", r.DistributionCenter)
	}
	return nil
}

// SplitOrderNumbers splits a whitespace/comma-delimited order list into
// individual trimmed order numbers. Empty entries are dropped.
func SplitOrderNumbers(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	orders := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			orders = append(orders, f)
		}
	}
	return orders
}

// JobStatusResponse is the publicly observable status projection of a job.
type JobStatusResponse struct {
	JobID    string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Message  *string   `json:"message"`
	Attempts int       `json:"attempts"`
}
