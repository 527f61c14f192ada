package testutil

import (
	"github.com/ncdist/rw-automator/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			Type:               model.JobTypeResetOrder,
			OrderNumber:        "408516",
			DistributionCenter: "00",
		},
	}
}

// WithType sets the job type.
func (b *JobRequestBuilder) WithType(jobType model.JobType) *JobRequestBuilder {
	b.req.Type = jobType
	return b
}

// WithOrderNumber sets the order number.
func (b *JobRequestBuilder) WithOrderNumber(orderNumber string) *JobRequestBuilder {
	b.req.OrderNumber = orderNumber
	return b
}

// WithDistributionCenter sets the distribution center code.
func (b *JobRequestBuilder) WithDistributionCenter(dc string) *JobRequestBuilder {
	b.req.DistributionCenter = dc
	return b
}

// WithRequestedBy sets the requesting user.
func (b *JobRequestBuilder) WithRequestedBy(user string) *JobRequestBuilder {
	b.req.RequestedBy = user
	return b
}

// WithTicketNumber sets the ticket number.
func (b *JobRequestBuilder) WithTicketNumber(ticket string) *JobRequestBuilder {
	b.req.TicketNumber = ticket
	return b
}

// Build returns the constructed CreateJobRequest.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}
