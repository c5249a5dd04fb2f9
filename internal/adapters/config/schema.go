package config

// ProjectFileName is the catalog file discovered by walking up from the working directory.
const ProjectFileName = "kiln.yaml"

// UserConfigFile is the per-user settings file, relative to the XDG config directories.
const UserConfigFile = "kiln/config.yaml"

// SupportedVersion is the only schema version understood by the loader.
const SupportedVersion = "1"

// Kilnfile represents the structure of kiln.yaml.
type Kilnfile struct {
	Version    string                  `yaml:"version"`
	Defaults   []string                `yaml:"defaults"`
	Arch       string                  `yaml:"arch"`
	Components map[string]ComponentDTO `yaml:"components"`
}

// ComponentDTO represents a component entry of kiln.yaml.
type ComponentDTO struct {
	DependsOn  []string          `yaml:"dependsOn"`
	Arch       []string          `yaml:"arch"`
	Packages   []string          `yaml:"packages"`
	Submodules []string          `yaml:"submodules"`
	Env        map[string]string `yaml:"env"`
	WorkingDir string            `yaml:"workingDir"`
	Compile    *CompileDTO       `yaml:"compile"`
	Run        [][]string        `yaml:"run"`
}

// CompileDTO represents the compile fan-out of a component.
type CompileDTO struct {
	Sources    string   `yaml:"sources"`
	Extensions []string `yaml:"extensions"`
	ObjectDir  string   `yaml:"objectDir"`
	Command    []string `yaml:"command"`
	DepFiles   []string `yaml:"depFiles"`
	Link       *LinkDTO `yaml:"link"`
}

// LinkDTO represents the single link job following a compile fan-out.
type LinkDTO struct {
	Output   string   `yaml:"output"`
	Command  []string `yaml:"command"`
	DepFiles []string `yaml:"depFiles"`
}

// UserSettings represents the structure of the per-user config file.
type UserSettings struct {
	Jobs      int      `yaml:"jobs"`
	Arch      string   `yaml:"arch"`
	Installer []string `yaml:"installer"`
}
