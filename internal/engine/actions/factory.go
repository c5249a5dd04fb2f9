// Package actions builds component actions from catalog entries: sequential
// command steps and compile fan-outs run through the scheduler.
package actions

import (
	"context"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/staleness"
	"go.trai.ch/zerr"
)

// Factory turns ComponentSpecs into domain actions.
type Factory struct {
	runner  ports.ProcessRunner
	fs      ports.FileSystem
	tracer  ports.Tracer
	logger  ports.Logger
	checker *staleness.Checker
}

// NewFactory creates a Factory.
func NewFactory(runner ports.ProcessRunner, fsys ports.FileSystem, tracer ports.Tracer, logger ports.Logger) *Factory {
	return &Factory{
		runner:  runner,
		fs:      fsys,
		tracer:  tracer,
		logger:  logger,
		checker: staleness.NewChecker(fsys),
	}
}

// Registry registers every component of the project and seals the result.
func (f *Factory) Registry(p *domain.Project) (*domain.Registry, error) {
	reg := domain.NewRegistry()
	for _, spec := range p.Components {
		c := domain.Component{
			Name:         spec.Name,
			Dependencies: spec.DependsOn,
			Arch:         spec.Arch,
			Requirements: domain.Requirements{
				Packages:   spec.Packages,
				Submodules: spec.Submodules,
			},
			Action: f.Action(spec, p.Root),
		}
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	if err := reg.SetDefaults(p.Defaults...); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}

// Action returns the action for spec, or nil when it has nothing to run.
// The compile fan-out runs before the command steps.
func (f *Factory) Action(spec domain.ComponentSpec, root string) domain.Action {
	dir := resolve(root, spec.WorkingDir)

	var steps []domain.Action
	if spec.Compile != nil {
		steps = append(steps, f.Compile(*spec.Compile, dir, spec.Env))
	}
	if len(spec.Run) > 0 {
		steps = append(steps, f.Commands(spec.Run, dir, spec.Env))
	}

	switch len(steps) {
	case 0:
		return nil
	case 1:
		return steps[0]
	default:
		return func(ctx context.Context, env domain.BuildEnv) error {
			for _, step := range steps {
				if err := step(ctx, env); err != nil {
					return err
				}
			}
			return nil
		}
	}
}

// Commands runs each argv in order and stops at the first failure.
func (f *Factory) Commands(steps [][]string, dir string, env map[string]string) domain.Action {
	return func(ctx context.Context, benv domain.BuildEnv) error {
		vars := templateVars{arch: benv.Arch, jobs: workers(benv)}
		env := vars.expandEnv(env)
		for i, step := range steps {
			args := vars.expand(step)
			f.logger.Debug("running " + strings.Join(args, " "))

			_, err := f.runner.Run(ctx, domain.Command{
				Args:   args,
				Dir:    dir,
				Env:    env,
				Output: stdout(ctx),
			})
			if err != nil {
				return zerr.With(err, "step", i+1)
			}
		}
		return nil
	}
}

func workers(env domain.BuildEnv) int {
	if env.Jobs > 0 {
		return env.Jobs
	}
	return runtime.NumCPU()
}

// stdout returns the output stream of the vertex carried by ctx, if any.
func stdout(ctx context.Context) io.Writer {
	if v, ok := ports.VertexFromContext(ctx); ok {
		return v.Stdout()
	}
	return nil
}

func resolve(root, path string) string {
	if path == "" {
		return root
	}
	if filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

type templateVars struct {
	input   string
	output  string
	depfile string
	inputs  []string
	arch    string
	jobs    int
}

// expand substitutes the template variables of argv. An argument that is
// exactly "{inputs}" becomes one argument per input.
func (v templateVars) expand(argv []string) []string {
	r := strings.NewReplacer(
		"{inputs}", strings.Join(v.inputs, " "),
		"{input}", v.input,
		"{output}", v.output,
		"{depfile}", v.depfile,
		"{arch}", v.arch,
		"{jobs}", strconv.Itoa(v.jobs),
	)

	out := make([]string, 0, len(argv)+len(v.inputs))
	for _, arg := range argv {
		if arg == "{inputs}" {
			out = append(out, v.inputs...)
			continue
		}
		out = append(out, r.Replace(arg))
	}
	return out
}

// expandEnv substitutes the template variables of every env value.
func (v templateVars) expandEnv(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}
	expanded := make(map[string]string, len(env))
	for k, val := range env {
		expanded[k] = v.expand([]string{val})[0]
	}
	return expanded
}
