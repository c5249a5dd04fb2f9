// Package config provides the kiln.yaml loader.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var (
	validComponentNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.+-]*$`)

	defaultExtensions = []string{".c", ".S"}
)

const defaultObjectDir = "obj"

// Loader implements ports.ConfigLoader using YAML files.
type Loader struct {
	Logger ports.Logger
	// UserConfig locates the per-user settings file. An empty path means none.
	UserConfig func() (string, error)
}

// NewLoader creates a new Loader reading user settings from the XDG config directories.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, UserConfig: searchUserConfig}
}

// Load reads the project file at path, or discovers kiln.yaml from cwd when path is empty.
func (l *Loader) Load(cwd, path string) (*domain.Project, error) {
	configPath, err := l.locate(cwd, path)
	if err != nil {
		return nil, err
	}

	var kilnfile Kilnfile
	if err := readAndUnmarshalYAML(configPath, &kilnfile); err != nil {
		return nil, err
	}

	project, err := buildProject(configPath, &kilnfile)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	settings, err := l.loadSettings()
	if err != nil {
		return nil, err
	}
	project.Settings = settings

	l.Logger.Debug("loaded " + configPath)
	return project, nil
}

func (l *Loader) locate(cwd, path string) (string, error) {
	if path == "" {
		return findConfiguration(cwd)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", zerr.With(domain.ErrConfigNotFound, "path", path)
		}
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	return path, nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, ProjectFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) loadSettings() (domain.Settings, error) {
	if l.UserConfig == nil {
		return domain.Settings{}, nil
	}
	path, err := l.UserConfig()
	if err != nil || path == "" {
		return domain.Settings{}, nil //nolint:nilerr // a missing user config is not an error
	}

	var us UserSettings
	if err := readAndUnmarshalYAML(path, &us); err != nil {
		return domain.Settings{}, err
	}
	if us.Jobs < 0 {
		return domain.Settings{}, zerr.With(zerr.With(domain.ErrInvalidConfig, "path", path), "jobs", us.Jobs)
	}

	l.Logger.Debug("loaded user settings from " + path)
	return domain.Settings{
		Jobs:      us.Jobs,
		Arch:      us.Arch,
		Installer: us.Installer,
	}, nil
}

// readAndUnmarshalYAML decodes path strictly into out. An empty file decodes to the zero value.
func readAndUnmarshalYAML(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}
	return nil
}

func buildProject(configPath string, kf *Kilnfile) (*domain.Project, error) {
	if kf.Version != "" && kf.Version != SupportedVersion {
		return nil, zerr.With(domain.ErrInvalidConfig, "version", kf.Version)
	}

	project := &domain.Project{
		Root:     filepath.Dir(configPath),
		Defaults: kf.Defaults,
		Arch:     kf.Arch,
	}

	names := make([]string, 0, len(kf.Components))
	for name := range kf.Components {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		spec, err := buildComponent(name, kf.Components[name])
		if err != nil {
			return nil, zerr.With(err, "component", name)
		}
		project.Components = append(project.Components, spec)
	}

	return project, nil
}

func buildComponent(name string, dto ComponentDTO) (domain.ComponentSpec, error) {
	if !validComponentNameRegex.MatchString(name) {
		return domain.ComponentSpec{}, zerr.With(domain.ErrInvalidComponentName, "name", name)
	}

	for i, step := range dto.Run {
		if len(step) == 0 {
			return domain.ComponentSpec{}, zerr.With(zerr.With(domain.ErrInvalidConfig, "reason", "empty run step"), "step", i+1)
		}
	}

	spec := domain.ComponentSpec{
		Name:       name,
		DependsOn:  dto.DependsOn,
		Arch:       dto.Arch,
		Packages:   dto.Packages,
		Submodules: dto.Submodules,
		Env:        dto.Env,
		WorkingDir: dto.WorkingDir,
		Run:        dto.Run,
	}

	if dto.Compile != nil {
		compile, err := buildCompile(dto.Compile)
		if err != nil {
			return domain.ComponentSpec{}, err
		}
		spec.Compile = compile
	}

	return spec, nil
}

func buildCompile(dto *CompileDTO) (*domain.CompileSpec, error) {
	if dto.Sources == "" {
		return nil, zerr.With(domain.ErrInvalidConfig, "reason", "compile.sources is required")
	}
	if len(dto.Command) == 0 {
		return nil, zerr.With(domain.ErrInvalidConfig, "reason", "compile.command is required")
	}

	spec := &domain.CompileSpec{
		Sources:    dto.Sources,
		Extensions: dto.Extensions,
		ObjectDir:  dto.ObjectDir,
		Command:    dto.Command,
		DepFiles:   dto.DepFiles,
	}
	if len(spec.Extensions) == 0 {
		spec.Extensions = slices.Clone(defaultExtensions)
	}
	if spec.ObjectDir == "" {
		spec.ObjectDir = defaultObjectDir
	}

	if dto.Link != nil {
		if dto.Link.Output == "" || len(dto.Link.Command) == 0 {
			return nil, zerr.With(domain.ErrInvalidConfig, "reason", "compile.link needs output and command")
		}
		spec.Link = &domain.LinkSpec{
			Output:   dto.Link.Output,
			Command:  dto.Link.Command,
			DepFiles: dto.Link.DepFiles,
		}
	}

	return spec, nil
}
