// Package plugin lets deployments extend the processing registry with
// modules compiled outside this repository, such as state Medicaid
// pricers or site-specific editors.
package plugin

import (
	"sync"

	"github.com/librepps/gopps/internal/orchestrator"
	"github.com/librepps/gopps/pkg/errdefs"
)

// Plugin is a named bundle of processing modules.
type Plugin interface {
	Name() string
	Modules() []orchestrator.Module
}

// Registry collects plugins and installs their modules into the
// orchestrator's module registry.
type Registry struct {
	mu      sync.Mutex
	order   []Plugin
	byName  map[string]bool
	applied map[string]bool
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]bool), applied: make(map[string]bool)}
}

// Register adds a plugin; a second plugin under the same name is rejected.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if r.byName[name] {
		return errdefs.Validation("plugin %s is already registered", name)
	}
	r.byName[name] = true
	r.order = append(r.order, p)
	return nil
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Plugin, len(r.order))
	copy(out, r.order)
	return out
}

// Apply installs each plugin's modules into reg. A module name that is
// already taken fails the call. Plugins installed by an earlier Apply are
// skipped, so the call may run again after late registrations.
func (r *Registry) Apply(reg *orchestrator.Registry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.order {
		if r.applied[p.Name()] {
			continue
		}
		for _, m := range p.Modules() {
			if err := reg.Register(m); err != nil {
				return errdefs.Validation("plugin %s: module %s is already registered", p.Name(), m.Name())
			}
		}
		r.applied[p.Name()] = true
	}
	return nil
}
