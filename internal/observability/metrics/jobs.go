// Package metrics defines the standardised metric shapes emitted by the
// dispatcher and runner.
package metrics

import (
	"time"

	"github.com/ncdist/rw-automator/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultFailed  = "failed"
)

// RunMetric captures details about one reset attempt for metric emission.
type RunMetric struct {
	JobType            string
	DistributionCenter string
	Result             string
	Duration           time.Duration
}

// EmitJobRun emits standardised per-attempt metrics.
func EmitJobRun(sink statsd.Sink, in RunMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"job_type": in.JobType,
		"dc":       in.DistributionCenter,
		"result":   in.Result,
	}

	sink.Count("job.run", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.run_duration", in.Duration, tags)
	}
}

// EmitPollCycle emits dispatcher poll-cycle metrics.
func EmitPollCycle(sink statsd.Sink, picked int, storeErr error) {
	if sink == nil {
		return
	}
	if storeErr != nil {
		sink.Count("dispatcher.poll_error", 1, nil)
		return
	}
	sink.Count("dispatcher.poll", 1, nil)
	if picked > 0 {
		sink.Count("dispatcher.jobs_picked", int64(picked), nil)
	}
}
