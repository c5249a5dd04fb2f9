package domain

import "time"

// BuildJob is one parallelizable unit of low-level work.
// Its identity is Output.
type BuildJob struct {
	Inputs []string
	Output string
	// DepFiles are ancillary files (headers, linker scripts) whose mtimes also count.
	DepFiles []string
	// Depfile is a compiler-generated make-style dependency file. Its prerequisites
	// count towards staleness; the file's own mtime does not.
	Depfile string
	Command []string
	Dir     string
	Env     map[string]string
}

// JobStatus is the outcome of a build job.
type JobStatus string

const (
	// JobSucceeded indicates the job ran and succeeded.
	JobSucceeded JobStatus = "succeeded"
	// JobSkipped indicates the job's output was up to date. It counts as success.
	JobSkipped JobStatus = "skipped"
	// JobFailed indicates the job ran and failed.
	JobFailed JobStatus = "failed"
)

// OK reports whether the status counts as success.
func (s JobStatus) OK() bool {
	return s == JobSucceeded || s == JobSkipped
}

// JobResult is produced by the scheduler for every job it ran.
type JobResult struct {
	Output   string
	Status   JobStatus
	Err      error
	Duration time.Duration
}
