package actions

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/kiln/internal/engine/staleness"
	"go.trai.ch/zerr"
)

// Compile discovers the sources of spec, compiles each one as an independent
// job through the scheduler and, when configured, links the objects once every
// compile result has been collected.
func (f *Factory) Compile(spec domain.CompileSpec, dir string, env map[string]string) domain.Action {
	return func(ctx context.Context, benv domain.BuildEnv) error {
		env := templateVars{arch: benv.Arch, jobs: workers(benv)}.expandEnv(env)
		jobs, err := f.compileJobs(spec, dir, env, benv)
		if err != nil {
			return err
		}

		opts := scheduler.Options{Workers: workers(benv), FailFast: benv.FailFast}
		report, err := scheduler.Run(ctx, f.runJob(benv.Force), opts, func(s *scheduler.Scheduler) error {
			for _, job := range jobs {
				// A rejected submission means the scheduler stopped; the report has the cause.
				if s.Submit(job) != nil {
					break
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		f.logger.Info(fmt.Sprintf("%d compiled, %d up to date, %d failed, %d abandoned",
			report.Count(domain.JobSucceeded),
			report.Count(domain.JobSkipped),
			report.Count(domain.JobFailed),
			len(report.Abandoned),
		))
		if !report.OK {
			return report.Err()
		}

		if spec.Link == nil {
			return nil
		}
		return f.link(ctx, *spec.Link, dir, env, benv, jobs)
	}
}

func (f *Factory) compileJobs(spec domain.CompileSpec, dir string, env map[string]string, benv domain.BuildEnv) ([]domain.BuildJob, error) {
	srcDir := resolve(dir, spec.Sources)
	sources, err := f.fs.Glob(srcDir, spec.Extensions)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceDiscoveryFailed.Error()), "dir", srcDir)
	}

	objDir := resolve(dir, spec.ObjectDir)
	depFiles := resolveAll(dir, spec.DepFiles)

	jobs := make([]domain.BuildJob, 0, len(sources))
	for _, src := range sources {
		rel, err := filepath.Rel(srcDir, src)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceDiscoveryFailed.Error()), "source", src)
		}
		out := filepath.Join(objDir, rel+".o")
		dep := out + ".d"

		vars := templateVars{
			input:   src,
			output:  out,
			depfile: dep,
			inputs:  []string{src},
			arch:    benv.Arch,
			jobs:    workers(benv),
		}
		jobs = append(jobs, domain.BuildJob{
			Inputs:   []string{src},
			Output:   out,
			DepFiles: depFiles,
			Depfile:  dep,
			Command:  vars.expand(spec.Command),
			Dir:      dir,
			Env:      env,
		})
	}
	return jobs, nil
}

// link runs a single job consuming every compile output.
func (f *Factory) link(
	ctx context.Context,
	spec domain.LinkSpec,
	dir string,
	env map[string]string,
	benv domain.BuildEnv,
	compiled []domain.BuildJob,
) error {
	objects := make([]string, len(compiled))
	for i, job := range compiled {
		objects[i] = job.Output
	}
	out := resolve(dir, spec.Output)

	vars := templateVars{
		output: out,
		inputs: objects,
		arch:   benv.Arch,
		jobs:   workers(benv),
	}
	job := domain.BuildJob{
		Inputs:   objects,
		Output:   out,
		DepFiles: resolveAll(dir, spec.DepFiles),
		Command:  vars.expand(spec.Command),
		Dir:      dir,
		Env:      env,
	}

	res := f.runJob(benv.Force)(ctx, job)
	if res.Status == domain.JobFailed {
		return zerr.With(zerr.Wrap(res.Err, domain.ErrJobFailure.Error()), "output", out)
	}
	return nil
}

// runJob returns the scheduler job function: consult the staleness checker,
// then run the job's command in its own vertex.
func (f *Factory) runJob(force bool) scheduler.JobFunc {
	return func(ctx context.Context, job domain.BuildJob) domain.JobResult {
		start := time.Now()
		ctx, vertex := f.tracer.Vertex(ctx, job.Output)

		decision, warn := f.checker.DecideJob(job, force)
		if warn != nil {
			f.logger.Warn(fmt.Sprintf("%s: %v", job.Output, warn))
		}
		if decision == staleness.Skip {
			vertex.Cached()
			vertex.Done(nil)
			return domain.JobResult{Status: domain.JobSkipped, Duration: time.Since(start)}
		}

		err := f.execute(ctx, job, vertex.Stdout())
		vertex.Done(err)
		if err != nil {
			return domain.JobResult{Status: domain.JobFailed, Err: err, Duration: time.Since(start)}
		}
		return domain.JobResult{Status: domain.JobSucceeded, Duration: time.Since(start)}
	}
}

func (f *Factory) execute(ctx context.Context, job domain.BuildJob, out io.Writer) error {
	if err := f.fs.MkdirAll(filepath.Dir(job.Output)); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileAccess.Error()), "path", filepath.Dir(job.Output))
	}
	_, err := f.runner.Run(ctx, domain.Command{
		Args:   job.Command,
		Dir:    job.Dir,
		Env:    job.Env,
		Output: out,
	})
	return err
}

func resolveAll(root string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = resolve(root, p)
	}
	return out
}
