package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const sampleKilnfile = `version: "1"
defaults: [image]
arch: x86_64
components:
  toolchain:
    packages: [bison, flex]
    run:
      - [make, "-j{jobs}", toolchain]
  kernel:
    dependsOn: [toolchain]
    arch: [x86_64, aarch64]
    submodules: [third_party/linux]
    workingDir: kernel
    env:
      ARCH: "{arch}"
    compile:
      sources: src
      command: [cc, -MD, -MF, "{depfile}", -c, "{input}", -o, "{output}"]
      depFiles: [include/config.h]
      link:
        output: build/kernel.elf
        command: [ld, -o, "{output}", "{inputs}"]
  image:
    dependsOn: [kernel]
    run:
      - [mkimage, build/kernel.elf]
`

func newLoader(t *testing.T, userConfig string) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	l := config.NewLoader(log)
	l.UserConfig = func() (string, error) { return userConfig, nil }
	return l
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.ProjectFileName), sampleKilnfile)

	project, err := newLoader(t, "").Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, root, project.Root)
	assert.Equal(t, []string{"image"}, project.Defaults)
	assert.Equal(t, "x86_64", project.Arch)

	require.Len(t, project.Components, 3)
	names := []string{project.Components[0].Name, project.Components[1].Name, project.Components[2].Name}
	assert.Equal(t, []string{"image", "kernel", "toolchain"}, names, "components are sorted by name")

	kernel := project.Components[1]
	assert.Equal(t, []string{"toolchain"}, kernel.DependsOn)
	assert.Equal(t, []string{"x86_64", "aarch64"}, kernel.Arch)
	assert.Equal(t, "kernel", kernel.WorkingDir)
	assert.Equal(t, map[string]string{"ARCH": "{arch}"}, kernel.Env)
	require.NotNil(t, kernel.Compile)
	assert.Equal(t, "src", kernel.Compile.Sources)
	assert.Equal(t, []string{".c", ".S"}, kernel.Compile.Extensions)
	assert.Equal(t, "obj", kernel.Compile.ObjectDir)
	require.NotNil(t, kernel.Compile.Link)
	assert.Equal(t, "build/kernel.elf", kernel.Compile.Link.Output)

	toolchain := project.Components[2]
	assert.Equal(t, []string{"bison", "flex"}, toolchain.Packages)
	assert.Equal(t, [][]string{{"make", "-j{jobs}", "toolchain"}}, toolchain.Run)
}

func TestLoader_DiscoversFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.ProjectFileName), sampleKilnfile)
	sub := filepath.Join(root, "kernel", "src")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	project, err := newLoader(t, "").Load(sub, "")
	require.NoError(t, err)
	assert.Equal(t, root, project.Root)
}

func TestLoader_ExplicitPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ci", "kiln-ci.yaml"), "components:\n  a:\n    run: [[make]]\n")

	project, err := newLoader(t, "").Load(root, "ci/kiln-ci.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "ci"), project.Root)
	require.Len(t, project.Components, 1)
}

func TestLoader_NotFound(t *testing.T) {
	root := t.TempDir()

	_, err := newLoader(t, "").Load(root, "")
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrConfigNotFound.Error())

	_, err = newLoader(t, "").Load(root, "missing.yaml")
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrConfigNotFound.Error())
}

func TestLoader_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "malformed yaml",
			content: "components: [",
			wantErr: domain.ErrConfigParseFailed,
		},
		{
			name:    "unknown field",
			content: "components:\n  a:\n    script: make\n",
			wantErr: domain.ErrConfigParseFailed,
		},
		{
			name:    "unsupported version",
			content: "version: \"2\"\n",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name:    "invalid component name",
			content: "components:\n  \"bad name\":\n    run: [[make]]\n",
			wantErr: domain.ErrInvalidComponentName,
		},
		{
			name:    "empty run step",
			content: "components:\n  a:\n    run: [[]]\n",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name:    "compile without command",
			content: "components:\n  a:\n    compile:\n      sources: src\n",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name:    "link without output",
			content: "components:\n  a:\n    compile:\n      sources: src\n      command: [cc]\n      link:\n        command: [ld]\n",
			wantErr: domain.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, config.ProjectFileName), tt.content)

			_, err := newLoader(t, "").Load(root, "")
			require.Error(t, err)
			require.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}

func TestLoader_EmptyFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.ProjectFileName), "")

	project, err := newLoader(t, "").Load(root, "")
	require.NoError(t, err)
	assert.Empty(t, project.Components)
}

func TestLoader_UserSettings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.ProjectFileName), sampleKilnfile)
	userConfig := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, userConfig, "jobs: 6\narch: aarch64\ninstaller: [dnf, install, -y]\n")

	project, err := newLoader(t, userConfig).Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{
		Jobs:      6,
		Arch:      "aarch64",
		Installer: []string{"dnf", "install", "-y"},
	}, project.Settings)
}

func TestLoader_InvalidUserSettings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.ProjectFileName), sampleKilnfile)
	userConfig := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, userConfig, "jobs: -2\n")

	_, err := newLoader(t, userConfig).Load(root, "")
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrInvalidConfig.Error())
}

func TestLoader_XDGUserSettings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.ProjectFileName), sampleKilnfile)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	project, err := config.NewLoader(log).Load(root, "")
	require.NoError(t, err)
	assert.NotNil(t, project)
}
