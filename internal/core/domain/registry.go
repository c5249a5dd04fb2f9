package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// Registry is the catalog of buildable components.
// It is populated once at startup and sealed before it is handed to the resolver.
type Registry struct {
	components map[string]Component
	order      []string
	defaults   []string
	sealed     bool
}

// NewRegistry creates an empty, writable Registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]Component),
	}
}

// Register adds a component to the registry.
// Dependencies and arch filters are stored ordered and deduplicated.
func (r *Registry) Register(c Component) error {
	if r.sealed {
		return zerr.With(ErrRegistrySealed, "component", c.Name)
	}
	if c.Name == "" {
		return ErrInvalidComponentName
	}
	if _, exists := r.components[c.Name]; exists {
		return zerr.With(ErrComponentAlreadyRegistered, "component", c.Name)
	}

	c = c.clone()
	c.Dependencies = dedupe(c.Dependencies)
	c.Arch = dedupe(c.Arch)
	c.Requirements.Packages = dedupe(c.Requirements.Packages)
	c.Requirements.Submodules = dedupe(c.Requirements.Submodules)

	r.components[c.Name] = c
	r.order = append(r.order, c.Name)
	return nil
}

// SetDefaults declares the targets built when none are requested.
// Names are not checked here; unknown defaults fail during resolution.
func (r *Registry) SetDefaults(names ...string) error {
	if r.sealed {
		return zerr.With(ErrRegistrySealed, "operation", "set defaults")
	}
	r.defaults = dedupe(names)
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether the registry is read-only.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Get returns the component registered under name.
func (r *Registry) Get(name string) (Component, error) {
	c, ok := r.components[name]
	if !ok {
		return Component{}, zerr.With(ErrUnknownComponent, "component", name)
	}
	return c.clone(), nil
}

// Names returns component names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Defaults returns the default target set.
func (r *Registry) Defaults() []string {
	return slices.Clone(r.defaults)
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	return len(r.order)
}
