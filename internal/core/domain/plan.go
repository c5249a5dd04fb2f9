package domain

// Plan is a resolved build order: every dependency precedes its dependents
// and each component appears exactly once.
type Plan []Component

// Names returns the component names in plan order.
func (p Plan) Names() []string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named component, or -1.
func (p Plan) Index(name string) int {
	for i, c := range p {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Requirements returns the merged download requirements of the components
// enabled for arch, in plan order.
func (p Plan) Requirements(arch string) Requirements {
	var req Requirements
	for _, c := range p {
		if !c.Enabled(arch) {
			continue
		}
		req.Packages = append(req.Packages, c.Requirements.Packages...)
		req.Submodules = append(req.Submodules, c.Requirements.Submodules...)
	}
	req.Packages = dedupe(req.Packages)
	req.Submodules = dedupe(req.Submodules)
	return req
}
