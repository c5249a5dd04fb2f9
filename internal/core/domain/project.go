package domain

// Project is the declarative catalog loaded from kiln.yaml, before actions are bound.
type Project struct {
	Root       string
	Defaults   []string
	Arch       string
	Components []ComponentSpec
	Settings   Settings
}

// Settings are per-user defaults, overridden by command line flags.
type Settings struct {
	Jobs      int
	Arch      string
	Installer []string
}

// ComponentSpec describes one catalog entry.
type ComponentSpec struct {
	Name       string
	DependsOn  []string
	Arch       []string
	Packages   []string
	Submodules []string
	Env        map[string]string
	WorkingDir string
	// Compile runs first, then the Run steps.
	Compile *CompileSpec
	Run     [][]string
}

// CompileSpec fans one compile job out per discovered source file.
type CompileSpec struct {
	Sources    string
	Extensions []string
	ObjectDir  string
	Command    []string
	DepFiles   []string
	Link       *LinkSpec
}

// LinkSpec is a single job consuming every object of the compile fan-out.
type LinkSpec struct {
	Output   string
	Command  []string
	DepFiles []string
}
