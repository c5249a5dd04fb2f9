// Package orchestrator walks a resolved build plan and runs each component's
// action, one component at a time.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options control a single plan execution.
type Options struct {
	Arch     string
	Force    bool
	Jobs     int
	FailFast bool
	// DryRun prints the plan and runs nothing.
	DryRun bool
}

// Orchestrator runs plans sequentially.
type Orchestrator struct {
	logger ports.Logger
	tracer ports.Tracer
	out    io.Writer
}

// New creates an Orchestrator. The plan of a dry run is written to out.
func New(logger ports.Logger, tracer ports.Tracer, out io.Writer) *Orchestrator {
	return &Orchestrator{
		logger: logger,
		tracer: tracer,
		out:    out,
	}
}

// Run executes the plan in order.
//
// A component disabled for opts.Arch, or one without an action, succeeds
// without running anything. The first failing component halts the walk; its
// error is wrapped in ErrComponentFailed and carries the component name.
func (o *Orchestrator) Run(ctx context.Context, plan domain.Plan, opts Options) error {
	if opts.DryRun {
		return PrintPlan(o.out, plan, opts.Arch)
	}

	env := domain.BuildEnv{
		Arch:     opts.Arch,
		Force:    opts.Force,
		Jobs:     opts.Jobs,
		FailFast: opts.FailFast,
	}

	total := len(plan)
	for i, c := range plan {
		if err := ctx.Err(); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrBuildExecutionFailed.Error()), "next_component", c.Name)
		}

		prefix := fmt.Sprintf("[%d/%d] %s", i+1, total, c.Name)
		if !c.Enabled(opts.Arch) {
			o.logger.Info(prefix + ": skipped, not built for " + opts.Arch)
			continue
		}
		if c.Action == nil {
			o.logger.Debug(prefix + ": nothing to do")
			continue
		}

		o.logger.Info(prefix + ": building")
		start := time.Now()

		if err := o.runComponent(ctx, c, env); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrComponentFailed.Error()), "component", c.Name)
		}

		o.logger.Info(fmt.Sprintf("%s: done in %s", prefix, time.Since(start).Round(time.Millisecond)))
	}
	return nil
}

func (o *Orchestrator) runComponent(ctx context.Context, c domain.Component, env domain.BuildEnv) (err error) {
	ctx, vertex := o.tracer.Vertex(ctx, c.Name)
	defer func() {
		vertex.Done(err)
	}()

	return c.Action(ports.ContextWithVertex(ctx, vertex), env)
}
