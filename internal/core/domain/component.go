// Package domain contains the core domain models of the kiln build orchestrator.
package domain

import (
	"context"
	"slices"
)

// BuildEnv carries the per-invocation settings a build action may consult.
type BuildEnv struct {
	Arch     string
	Force    bool
	Jobs     int
	FailFast bool
}

// Action is a component's build step. A nil error is success.
type Action func(ctx context.Context, env BuildEnv) error

// Component is a named buildable unit.
// Components are immutable once registered; a variant is a distinct Component.
type Component struct {
	Name         string
	Dependencies []string
	Action       Action
	// Arch restricts the action to the listed architectures. Empty means unconditional.
	Arch []string
	// Requirements lists what the dependency-download phase must fetch for this component.
	Requirements Requirements
}

// Enabled reports whether the component's action runs for the given architecture.
// A disabled component still contributes its dependency edges.
func (c Component) Enabled(arch string) bool {
	if len(c.Arch) == 0 {
		return true
	}
	want := NormalizeArch(arch)
	for _, a := range c.Arch {
		if NormalizeArch(a) == want {
			return true
		}
	}
	return false
}

func (c Component) clone() Component {
	c.Dependencies = slices.Clone(c.Dependencies)
	c.Arch = slices.Clone(c.Arch)
	c.Requirements = Requirements{
		Packages:   slices.Clone(c.Requirements.Packages),
		Submodules: slices.Clone(c.Requirements.Submodules),
	}
	return c
}

// dedupe returns names in first-occurrence order with repeats and empty names removed.
func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
