// Package shell runs external tools for build actions and jobs.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// Runner implements ports.ProcessRunner using os/exec.
// Commands streaming to a terminal run inside a PTY so tools keep their
// colours and progress output.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{
		logger: logger,
	}
}

// Run executes cmd and waits for it to exit.
func (r *Runner) Run(ctx context.Context, cmd domain.Command) (domain.ProcessResult, error) {
	if len(cmd.Args) == 0 {
		return domain.ProcessResult{}, domain.ErrEmptyCommand
	}

	name := cmd.Args[0]
	env := resolveEnvironment(os.Environ(), cmd.Env)

	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // catalog provided command
	c.Args[0] = name
	c.Dir = cmd.Dir
	c.Env = env

	r.logger.Debug("exec " + strings.Join(cmd.Args, " "))

	captured := &syncBuffer{}
	var sink io.Writer = captured
	if cmd.Output != nil {
		sink = io.MultiWriter(captured, cmd.Output)
	}

	var err error
	if isTerminal(cmd.Output) {
		err = runPTY(c, sink)
	} else {
		err = runPipes(c, sink)
	}

	result := domain.ProcessResult{Output: captured.Bytes()}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return result, zerr.With(zerr.Wrap(err, domain.ErrCommandStartFailed.Error()), "command", name)
	}

	result.ExitCode = exitErr.ExitCode()
	failure := zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "command", name)
	if result.ExitCode > 0 {
		failure = zerr.With(failure, domain.ExitCodeKey, result.ExitCode)
	}
	return result, failure
}

func runPipes(c *exec.Cmd, sink io.Writer) error {
	c.Stdout = sink
	c.Stderr = sink
	return c.Run()
}

func runPTY(c *exec.Cmd, sink io.Writer) error {
	ptmx, err := pty.Start(c)
	if err != nil {
		return err
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading the master returns EIO once the child side closes.
		_, _ = io.Copy(sink, ptmx)
	}()

	err = c.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// syncBuffer serializes writes from the stdout and stderr copy goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.buf.Bytes())
}

// resolveEnvironment overlays overrides onto the inherited environment.
// The result is sorted by key.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
