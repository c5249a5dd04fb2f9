// Package app implements the application layer for kiln.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/actions"
	"go.trai.ch/kiln/internal/engine/orchestrator"
	"go.trai.ch/kiln/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	runner       ports.ProcessRunner
	fs           ports.FileSystem
	installer    ports.PackageInstaller
	tracer       ports.Tracer
	logger       ports.Logger
	out          io.Writer
	workDir      string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	runner ports.ProcessRunner,
	fsys ports.FileSystem,
	installer ports.PackageInstaller,
	tracer ports.Tracer,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		runner:       runner,
		fs:           fsys,
		installer:    installer,
		tracer:       tracer,
		logger:       log,
		out:          os.Stdout,
	}
}

// WithOutput sets the writer receiving plans and listings.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithWorkingDir sets the directory kiln.yaml is discovered from.
// It defaults to the process working directory.
func (a *App) WithWorkingDir(dir string) *App {
	a.workDir = dir
	return a
}

// LoadOptions select the project file and the target architecture.
type LoadOptions struct {
	// ConfigPath is an explicit project file. Empty means discovery from the working directory.
	ConfigPath string
	// Arch overrides the user and project default architectures.
	Arch string
}

// BuildOptions configuration for the Build and Deps methods.
type BuildOptions struct {
	LoadOptions

	Force bool
	// Jobs bounds compile concurrency. Zero falls back to the user setting, then runtime.NumCPU.
	Jobs     int
	Download bool
	DryRun   bool
	FailFast bool
}

// LogOptions configure the logger for an invocation.
type LogOptions struct {
	Verbose bool
	JSON    bool
}

type verboseSetter interface{ SetVerbose(bool) }

type jsonSetter interface{ SetJSON(bool) }

// ConfigureLogging applies opts to loggers that support them.
func (a *App) ConfigureLogging(opts LogOptions) {
	if l, ok := a.logger.(verboseSetter); ok {
		l.SetVerbose(opts.Verbose)
	}
	if l, ok := a.logger.(jsonSetter); ok {
		l.SetJSON(opts.JSON)
	}
}

// Build resolves the targets, optionally fetches their requirements and runs the plan.
// No targets means the project defaults.
func (a *App) Build(ctx context.Context, targets []string, opts BuildOptions) error {
	s, err := a.prepare(targets, opts.LoadOptions)
	if err != nil {
		return err
	}

	if opts.Download && !opts.DryRun {
		if err := a.download(ctx, s); err != nil {
			return err
		}
	}

	orch := orchestrator.New(a.logger, a.tracer, a.out)
	return orch.Run(ctx, s.plan, orchestrator.Options{
		Arch:     s.arch,
		Force:    opts.Force,
		Jobs:     jobs(opts.Jobs, s.project.Settings.Jobs),
		FailFast: opts.FailFast,
		DryRun:   opts.DryRun,
	})
}

// Deps runs only the download phase for the targets.
func (a *App) Deps(ctx context.Context, targets []string, opts LoadOptions) error {
	s, err := a.prepare(targets, opts)
	if err != nil {
		return err
	}
	return a.download(ctx, s)
}

// List prints the catalog of the project.
func (a *App) List(_ context.Context, opts LoadOptions) error {
	project, err := a.load(opts.ConfigPath)
	if err != nil {
		return err
	}
	reg, err := a.factory().Registry(project)
	if err != nil {
		return err
	}
	return PrintCatalog(a.out, reg, resolveArch(opts.Arch, project))
}

// Close flushes the build recording.
func (a *App) Close() error {
	return a.tracer.Close()
}

type session struct {
	project *domain.Project
	plan    domain.Plan
	arch    string
}

func (a *App) prepare(targets []string, opts LoadOptions) (*session, error) {
	project, err := a.load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	reg, err := a.factory().Registry(project)
	if err != nil {
		return nil, err
	}

	plan, err := resolver.Resolve(reg, targets)
	if err != nil {
		return nil, err
	}

	arch := resolveArch(opts.Arch, project)
	a.logger.Debug(fmt.Sprintf("resolved %d components for %s", len(plan), arch))

	return &session{project: project, plan: plan, arch: arch}, nil
}

func (a *App) load(path string) (*domain.Project, error) {
	cwd := a.workDir
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
	}

	project, err := a.configLoader.Load(cwd, path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

func (a *App) factory() *actions.Factory {
	return actions.NewFactory(a.runner, a.fs, a.tracer, a.logger)
}

func (a *App) download(ctx context.Context, s *session) error {
	req := s.plan.Requirements(s.arch)
	req.PackageCommand = s.project.Settings.Installer
	req.Root = s.project.Root

	if req.Empty() {
		a.logger.Info("no dependencies to download")
		return nil
	}
	return a.installer.Install(ctx, req)
}

// resolveArch picks the flag, then the user setting, then the project default, then the host.
func resolveArch(flag string, project *domain.Project) string {
	for _, arch := range []string{flag, project.Settings.Arch, project.Arch} {
		if arch != "" {
			return domain.NormalizeArch(arch)
		}
	}
	return domain.HostArch()
}

func jobs(flag, setting int) int {
	switch {
	case flag > 0:
		return flag
	case setting > 0:
		return setting
	default:
		return runtime.NumCPU()
	}
}
