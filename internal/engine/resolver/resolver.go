// Package resolver turns requested target names into a dependency-respecting build plan.
package resolver

import (
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

type color uint8

const (
	unvisited color = iota
	visiting
	done
)

// Resolve returns every component reachable from requested exactly once,
// each dependency strictly before its dependents.
//
// An empty request resolves the registry defaults. Independent components keep
// the order in which they first became reachable from the request. Resolution
// never invokes an action.
func Resolve(reg *domain.Registry, requested []string) (domain.Plan, error) {
	if len(requested) == 0 {
		requested = reg.Defaults()
		if len(requested) == 0 {
			return nil, domain.ErrNoDefaultTargets
		}
	}

	r := &resolution{
		reg:   reg,
		state: make(map[string]color),
		plan:  make(domain.Plan, 0, reg.Len()),
	}

	for _, name := range requested {
		if r.state[name] == done {
			continue
		}
		if err := r.visit(name, ""); err != nil {
			return nil, err
		}
	}

	return r.plan, nil
}

type resolution struct {
	reg   *domain.Registry
	state map[string]color
	path  []string
	plan  domain.Plan
}

func (r *resolution) visit(name, requiredBy string) error {
	c, err := r.reg.Get(name)
	if err != nil {
		if requiredBy != "" {
			err = zerr.With(err, "required_by", requiredBy)
		}
		return err
	}

	r.state[name] = visiting
	r.path = append(r.path, name)

	for _, dep := range c.Dependencies {
		switch r.state[dep] {
		case visiting:
			return cycleError(r.path, dep)
		case unvisited:
			if err := r.visit(dep, name); err != nil {
				return err
			}
		case done:
		}
	}

	r.state[name] = done
	r.path = r.path[:len(r.path)-1]
	r.plan = append(r.plan, c)
	return nil
}

// cycleError reports the path from the first occurrence of dep back to dep.
func cycleError(path []string, dep string) error {
	start := 0
	for i, node := range path {
		if node == dep {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(path)-start+1)
	cycle = append(cycle, path[start:]...)
	cycle = append(cycle, dep)
	return zerr.With(domain.ErrCyclicDependency, "cycle", strings.Join(cycle, " -> "))
}
