package scheduler

import (
	"errors"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Report is what Collect returns.
type Report struct {
	// Results holds one entry per job that ran, in submission order.
	Results []domain.JobResult
	// Abandoned lists queued jobs that never started after the scheduler stopped.
	Abandoned []domain.BuildJob
	// OK is true iff every accepted job succeeded or was skipped and none was abandoned.
	OK bool
}

// Failures returns the failed results in submission order.
func (r Report) Failures() []domain.JobResult {
	var failed []domain.JobResult
	for _, res := range r.Results {
		if res.Status == domain.JobFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Count returns the number of results with the given status.
func (r Report) Count(status domain.JobStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Err joins every job failure. Abandoned work without any failure, which
// happens when the context is cancelled, is reported as ErrSchedulerStopped.
func (r Report) Err() error {
	if r.OK {
		return nil
	}
	var errs error
	for _, res := range r.Failures() {
		errs = errors.Join(errs, res.Err)
	}
	if errs == nil {
		errs = zerr.With(domain.ErrSchedulerStopped, "abandoned", len(r.Abandoned))
	}
	return errs
}
