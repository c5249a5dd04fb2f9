package installer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/installer"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newInstaller(t *testing.T, limit int) (*installer.Installer, *mocks.MockProcessRunner) {
	t.Helper()
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockProcessRunner(ctrl)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return installer.NewWithLimit(runner, log, limit), runner
}

func TestInstall_Empty(t *testing.T) {
	inst, _ := newInstaller(t, 1)
	require.NoError(t, inst.Install(t.Context(), domain.Requirements{}))
}

func TestInstall_PackagesSortedWithDefaultCommand(t *testing.T) {
	inst, runner := newInstaller(t, 1)

	runner.EXPECT().Run(gomock.Any(), domain.Command{
		Args: []string{"apt-get", "install", "-y", "bison", "flex", "nasm"},
		Dir:  "/src",
	}).Return(domain.ProcessResult{}, nil)

	err := inst.Install(t.Context(), domain.Requirements{
		Packages: []string{"nasm", "flex", "bison", "flex"},
		Root:     "/src",
	})
	require.NoError(t, err)
}

func TestInstall_CustomPackageCommand(t *testing.T) {
	inst, runner := newInstaller(t, 1)

	runner.EXPECT().Run(gomock.Any(), domain.Command{
		Args: []string{"dnf", "install", "-y", "gcc"},
	}).Return(domain.ProcessResult{}, nil)

	err := inst.Install(t.Context(), domain.Requirements{
		Packages:       []string{"gcc"},
		PackageCommand: []string{"dnf", "install", "-y"},
	})
	require.NoError(t, err)
}

func TestInstall_PackageFailure(t *testing.T) {
	inst, runner := newInstaller(t, 1)
	cause := errors.New("exit status 100")

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(domain.ProcessResult{ExitCode: 100}, cause)

	err := inst.Install(t.Context(), domain.Requirements{
		Packages:   []string{"gcc"},
		Submodules: []string{"third_party/lib"},
	})
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrInstallFailed.Error())
	require.ErrorIs(t, err, cause)
}

func TestInstall_Submodules(t *testing.T) {
	inst, runner := newInstaller(t, 2)

	var mu sync.Mutex
	var fetched []string
	runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cmd domain.Command) (domain.ProcessResult, error) {
			assert.Equal(t, "/src", cmd.Dir)
			assert.Equal(t, []string{"git", "submodule", "update", "--init", "--recursive", "--"}, cmd.Args[:6])
			mu.Lock()
			fetched = append(fetched, cmd.Args[6])
			mu.Unlock()
			return domain.ProcessResult{}, nil
		}).Times(3)

	err := inst.Install(t.Context(), domain.Requirements{
		Submodules: []string{"edk2", "qemu", "u-boot"},
		Root:       "/src",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"edk2", "qemu", "u-boot"}, fetched)
}

func TestInstall_SubmoduleFailure(t *testing.T) {
	inst, runner := newInstaller(t, 1)
	cause := errors.New("exit status 128")

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(domain.ProcessResult{}, cause)

	err := inst.Install(t.Context(), domain.Requirements{Submodules: []string{"edk2"}})
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrInstallFailed.Error())
	require.ErrorIs(t, err, cause)
}
