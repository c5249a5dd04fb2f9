// Package installer fetches the system packages and source checkouts a build plan needs.
package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultPackageCommand is used when no installer argv is configured.
var DefaultPackageCommand = []string{"apt-get", "install", "-y"}

// Installer implements ports.PackageInstaller with the system package manager and git.
type Installer struct {
	runner ports.ProcessRunner
	logger ports.Logger
	limit  int
	// out receives the package manager's output as it runs.
	out io.Writer
}

// New creates an Installer streaming package manager output to stdout and
// fetching up to runtime.NumCPU submodules at once.
func New(runner ports.ProcessRunner, logger ports.Logger) *Installer {
	i := NewWithLimit(runner, logger, runtime.NumCPU())
	i.out = os.Stdout
	return i
}

// NewWithLimit creates an Installer fetching up to limit submodules at once.
func NewWithLimit(runner ports.ProcessRunner, logger ports.Logger, limit int) *Installer {
	if limit < 1 {
		limit = 1
	}
	return &Installer{runner: runner, logger: logger, limit: limit}
}

// Install installs the packages in one installer invocation, then fetches the submodules concurrently.
func (i *Installer) Install(ctx context.Context, req domain.Requirements) error {
	if req.Empty() {
		i.logger.Debug("nothing to install")
		return nil
	}

	if err := i.installPackages(ctx, req); err != nil {
		return err
	}
	return i.fetchSubmodules(ctx, req)
}

func (i *Installer) installPackages(ctx context.Context, req domain.Requirements) error {
	if len(req.Packages) == 0 {
		return nil
	}

	packages := slices.Clone(req.Packages)
	slices.Sort(packages)
	packages = slices.Compact(packages)

	argv := req.PackageCommand
	if len(argv) == 0 {
		argv = DefaultPackageCommand
	}
	argv = append(slices.Clone(argv), packages...)

	i.logger.Info(fmt.Sprintf("installing %d packages: %s", len(packages), strings.Join(packages, " ")))

	if _, err := i.runner.Run(ctx, domain.Command{Args: argv, Dir: req.Root, Output: i.out}); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "packages", strings.Join(packages, " "))
	}
	return nil
}

func (i *Installer) fetchSubmodules(ctx context.Context, req domain.Requirements) error {
	if len(req.Submodules) == 0 {
		return nil
	}

	i.logger.Info(fmt.Sprintf("fetching %d submodules", len(req.Submodules)))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(i.limit)

	for _, path := range req.Submodules {
		g.Go(func() error {
			i.logger.Debug("git submodule update " + path)
			cmd := domain.Command{
				Args: []string{"git", "submodule", "update", "--init", "--recursive", "--", path},
				Dir:  req.Root,
			}
			if _, err := i.runner.Run(groupCtx, cmd); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "submodule", path)
			}
			return nil
		})
	}

	return g.Wait()
}
