// Package staleness decides whether a build step has to run, based on file
// modification times.
package staleness

import (
	"errors"
	"io/fs"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/depfile"
	"go.trai.ch/zerr"
)

// Decision is the outcome of a staleness check.
type Decision int

const (
	// Rebuild means the step must run.
	Rebuild Decision = iota
	// Skip means the output is up to date.
	Skip
)

func (d Decision) String() string {
	if d == Skip {
		return "skip"
	}
	return "rebuild"
}

// Checker compares input and output modification times.
// It only ever stats and reads files.
type Checker struct {
	fs ports.FileSystem
}

// NewChecker creates a Checker on top of the given filesystem.
func NewChecker(fsys ports.FileSystem) *Checker {
	return &Checker{fs: fsys}
}

// Decide returns Skip iff force is false, output exists and output is at least
// as new as every input.
//
// The returned error is a warning, never a reason to skip: an input that
// cannot be stat'ed, or an output stat failure other than not-exist, yields
// Rebuild together with an ErrFileAccess warning.
func (c *Checker) Decide(inputs []string, output string, force bool) (Decision, error) {
	if force {
		return Rebuild, nil
	}

	outInfo, err := c.fs.Stat(output)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Rebuild, nil
		}
		return Rebuild, accessWarning(err, output)
	}
	outTime := outInfo.ModTime()

	decision := Skip
	var warnings error
	for _, in := range inputs {
		info, err := c.fs.Stat(in)
		if err != nil {
			decision = Rebuild
			warnings = errors.Join(warnings, accessWarning(err, in))
			continue
		}
		if info.ModTime().After(outTime) {
			decision = Rebuild
		}
	}
	return decision, warnings
}

// DecideJob checks the job's inputs, its ancillary dependency files and the
// prerequisites recorded in its depfile. A missing depfile adds nothing; an
// unreadable or malformed one forces Rebuild with a warning.
func (c *Checker) DecideJob(job domain.BuildJob, force bool) (Decision, error) {
	if force {
		return Rebuild, nil
	}

	inputs := make([]string, 0, len(job.Inputs)+len(job.DepFiles))
	inputs = append(inputs, job.Inputs...)
	inputs = append(inputs, job.DepFiles...)

	var warning error
	if job.Depfile != "" {
		prereqs, err := c.depfilePrerequisites(job.Depfile)
		if err != nil {
			warning = err
		}
		inputs = append(inputs, prereqs...)
	}

	decision, err := c.Decide(inputs, job.Output, false)
	if warning != nil {
		return Rebuild, errors.Join(warning, err)
	}
	return decision, err
}

func (c *Checker) depfilePrerequisites(path string) ([]string, error) {
	data, err := c.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, accessWarning(err, path)
	}
	prereqs, err := depfile.Prerequisites(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return prereqs, nil
}

func accessWarning(err error, path string) error {
	return zerr.With(zerr.Wrap(err, domain.ErrFileAccess.Error()), "path", path)
}
