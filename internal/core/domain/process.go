package domain

import "io"

// Command is an argv invocation handed to the process runner.
type Command struct {
	Args []string
	Dir  string
	// Env overrides entries of the inherited environment.
	Env map[string]string
	// Output, when set, receives the combined output as it is produced.
	Output io.Writer
}

// ProcessResult is what the process runner reports for a finished command.
type ProcessResult struct {
	ExitCode int
	Output   []byte
}

// Requirements is the set of external resources a component needs fetched
// before it can build.
type Requirements struct {
	Packages   []string
	Submodules []string
	// PackageCommand is the installer argv the packages are appended to.
	PackageCommand []string
	// Root is the directory submodules are resolved against.
	Root string
}

// Empty reports whether there is nothing to fetch.
func (r Requirements) Empty() bool {
	return len(r.Packages) == 0 && len(r.Submodules) == 0
}
