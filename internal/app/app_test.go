package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const workDir = "/work"

type harness struct {
	loader    *mocks.MockConfigLoader
	runner    *mocks.MockProcessRunner
	installer *mocks.MockPackageInstaller
	out       *bytes.Buffer
	app       *app.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	h := &harness{
		loader:    mocks.NewMockConfigLoader(ctrl),
		runner:    mocks.NewMockProcessRunner(ctrl),
		installer: mocks.NewMockPackageInstaller(ctrl),
		out:       &bytes.Buffer{},
	}
	h.app = app.New(
		h.loader,
		h.runner,
		mocks.NewMockFileSystem(ctrl),
		h.installer,
		telemetry.NewNoOpTracer(io.Discard),
		log,
	).WithOutput(h.out).WithWorkingDir(workDir)
	return h
}

// recordRuns captures the argv of every command the runner executes.
func (h *harness) recordRuns() *[]string {
	var runs []string
	h.runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cmd domain.Command) (domain.ProcessResult, error) {
			runs = append(runs, strings.Join(cmd.Args, " "))
			return domain.ProcessResult{}, nil
		}).AnyTimes()
	return &runs
}

func step(args ...string) [][]string {
	return [][]string{args}
}

func diamondProject() *domain.Project {
	return &domain.Project{
		Root:     workDir,
		Defaults: []string{"D"},
		Arch:     "x86_64",
		Components: []domain.ComponentSpec{
			{Name: "A", Run: step("build", "A"), Packages: []string{"nasm"}},
			{Name: "B", DependsOn: []string{"A"}, Run: step("build", "B"), Packages: []string{"nasm", "bison"}},
			{Name: "C", DependsOn: []string{"A"}, Run: step("build", "C"), Submodules: []string{"third_party/c"}},
			{Name: "D", DependsOn: []string{"B", "C"}, Run: step("build", "D")},
		},
	}
}

func TestApp_Build_Diamond(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(diamondProject(), nil)
	runs := h.recordRuns()

	err := h.app.Build(t.Context(), []string{"D"}, app.BuildOptions{FailFast: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"build A", "build B", "build C", "build D"}, *runs)
}

func TestApp_Build_SharedDependencyOnce(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(diamondProject(), nil)
	runs := h.recordRuns()

	err := h.app.Build(t.Context(), []string{"B", "C"}, app.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"build A", "build B", "build C"}, *runs)
}

func TestApp_Build_Defaults(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "kiln-ci.yaml").Return(diamondProject(), nil)
	runs := h.recordRuns()

	err := h.app.Build(t.Context(), nil, app.BuildOptions{LoadOptions: app.LoadOptions{ConfigPath: "kiln-ci.yaml"}})
	require.NoError(t, err)
	assert.Len(t, *runs, 4)
}

func TestApp_Build_ResolutionErrorsRunNothing(t *testing.T) {
	tests := []struct {
		name    string
		project *domain.Project
		targets []string
		wantErr error
	}{
		{
			name:    "unknown target",
			project: diamondProject(),
			targets: []string{"E"},
			wantErr: domain.ErrUnknownComponent,
		},
		{
			name: "cycle",
			project: &domain.Project{Components: []domain.ComponentSpec{
				{Name: "A", DependsOn: []string{"B"}, Run: step("build", "A")},
				{Name: "B", DependsOn: []string{"A"}, Run: step("build", "B")},
			}},
			targets: []string{"A"},
			wantErr: domain.ErrCyclicDependency,
		},
		{
			name:    "no defaults",
			project: &domain.Project{Components: []domain.ComponentSpec{{Name: "A"}}},
			wantErr: domain.ErrNoDefaultTargets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.loader.EXPECT().Load(workDir, "").Return(tt.project, nil)

			err := h.app.Build(t.Context(), tt.targets, app.BuildOptions{Download: true})
			require.Error(t, err)
			require.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}

func TestApp_Build_FailureExitCode(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(diamondProject(), nil)

	cause := errors.New("exit status 2")
	h.runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(domain.ProcessResult{}, nil)
	h.runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(domain.ProcessResult{ExitCode: 2},
		zerr.With(cause, domain.ExitCodeKey, 2))

	err := h.app.Build(t.Context(), []string{"D"}, app.BuildOptions{})
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrComponentFailed.Error())
	require.ErrorIs(t, err, cause)
	assert.Equal(t, 2, domain.ExitCode(err))
}

func TestApp_Build_Download(t *testing.T) {
	h := newHarness(t)
	project := diamondProject()
	project.Settings.Installer = []string{"dnf", "install", "-y"}
	h.loader.EXPECT().Load(workDir, "").Return(project, nil)
	h.recordRuns()

	h.installer.EXPECT().Install(gomock.Any(), domain.Requirements{
		Packages:       []string{"nasm", "bison"},
		Submodules:     []string{"third_party/c"},
		PackageCommand: []string{"dnf", "install", "-y"},
		Root:           workDir,
	}).Return(nil)

	require.NoError(t, h.app.Build(t.Context(), []string{"D"}, app.BuildOptions{Download: true}))
}

func TestApp_Build_DownloadFailureStopsBuild(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(diamondProject(), nil)
	h.installer.EXPECT().Install(gomock.Any(), gomock.Any()).Return(domain.ErrInstallFailed)

	err := h.app.Build(t.Context(), []string{"D"}, app.BuildOptions{Download: true})
	require.ErrorIs(t, err, domain.ErrInstallFailed)
}

func TestApp_Build_DryRun(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(diamondProject(), nil)

	err := h.app.Build(t.Context(), []string{"D"}, app.BuildOptions{DryRun: true, Download: true})
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "Build plan for x86_64 (4 components)")
}

func TestApp_Build_ArchPrecedence(t *testing.T) {
	project := func() *domain.Project {
		return &domain.Project{
			Arch: "x86_64",
			Components: []domain.ComponentSpec{
				{Name: "firmware", Arch: []string{"aarch64"}, Run: step("make", "-j{jobs}", "ARCH={arch}")},
			},
			Settings: domain.Settings{Arch: "arm64", Jobs: 6},
		}
	}

	t.Run("user setting beats project default", func(t *testing.T) {
		h := newHarness(t)
		h.loader.EXPECT().Load(workDir, "").Return(project(), nil)
		runs := h.recordRuns()

		require.NoError(t, h.app.Build(t.Context(), []string{"firmware"}, app.BuildOptions{}))
		assert.Equal(t, []string{"make -j6 ARCH=aarch64"}, *runs)
	})

	t.Run("flag beats user setting", func(t *testing.T) {
		h := newHarness(t)
		h.loader.EXPECT().Load(workDir, "").Return(project(), nil)
		runs := h.recordRuns()

		opts := app.BuildOptions{LoadOptions: app.LoadOptions{Arch: "amd64"}, Jobs: 2}
		require.NoError(t, h.app.Build(t.Context(), []string{"firmware"}, opts))
		assert.Empty(t, *runs, "firmware is not built for x86_64")
	})
}

func TestApp_Build_LoadError(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(nil, domain.ErrConfigNotFound)

	err := h.app.Build(t.Context(), nil, app.BuildOptions{})
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
	require.ErrorContains(t, err, "failed to load configuration")
}

func TestApp_Deps(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(diamondProject(), nil)
	h.installer.EXPECT().Install(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.Requirements) error {
			assert.Equal(t, []string{"nasm"}, req.Packages)
			assert.Empty(t, req.Submodules)
			return nil
		})

	require.NoError(t, h.app.Deps(t.Context(), []string{"A"}, app.LoadOptions{}))
}

func TestApp_Deps_NothingToFetch(t *testing.T) {
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(&domain.Project{
		Components: []domain.ComponentSpec{
			{Name: "A", Run: step("build", "A")},
			{Name: "B", Arch: []string{"riscv64"}, Packages: []string{"gcc-riscv64-linux-gnu"}},
		},
	}, nil)

	// B is not built for aarch64, so its packages are not fetched.
	require.NoError(t, h.app.Deps(t.Context(), []string{"A", "B"}, app.LoadOptions{Arch: "aarch64"}))
}

func TestApp_List(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	h := newHarness(t)
	h.loader.EXPECT().Load(workDir, "").Return(&domain.Project{
		Defaults: []string{"image"},
		Arch:     "x86_64",
		Components: []domain.ComponentSpec{
			{Name: "toolchain"},
			{Name: "kernel", DependsOn: []string{"toolchain"}, Arch: []string{"x86_64", "aarch64"}},
			{Name: "firmware", DependsOn: []string{"kernel"}, Arch: []string{"riscv64"}},
			{Name: "image", DependsOn: []string{"kernel", "firmware"}},
		},
	}, nil)

	require.NoError(t, h.app.List(t.Context(), app.LoadOptions{}))

	g := goldie.New(t)
	g.Assert(t, "list", h.out.Bytes())
}

type settableLogger struct {
	*mocks.MockLogger
	verbose bool
	json    bool
}

func (l *settableLogger) SetVerbose(v bool) { l.verbose = v }
func (l *settableLogger) SetJSON(v bool)    { l.json = v }

func TestApp_ConfigureLogging(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := &settableLogger{MockLogger: mocks.NewMockLogger(ctrl)}

	a := app.New(nil, nil, nil, nil, telemetry.NewNoOpTracer(nil), log)
	a.ConfigureLogging(app.LogOptions{Verbose: true, JSON: true})

	assert.True(t, log.verbose)
	assert.True(t, log.json)
	require.NoError(t, a.Close())
}
