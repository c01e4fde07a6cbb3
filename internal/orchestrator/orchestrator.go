// Package orchestrator routes claims through their requested processing
// modules. Modules declare the upstream outputs they consume; the
// orchestrator pulls those dependencies into the run, orders everything,
// and isolates failures so one bad module never sinks its siblings.
package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/librepps/gopps/pkg/claim"
	"github.com/librepps/gopps/pkg/errdefs"
	"github.com/librepps/gopps/pkg/output"
)

// Module is one processing capability: an editor, a grouper or a pricer.
// Implementations are stateless across claims and safe for concurrent use.
type Module interface {
	Name() claim.Module

	// Dependencies lists the modules whose outputs this one consumes.
	Dependencies() []claim.Module

	// Validate rejects claims the module cannot process, before any
	// engine is touched.
	Validate(c *claim.Claim) error

	// Process computes the module's output and records it on res. The
	// outputs of every dependency are already present on res.
	Process(ctx context.Context, c *claim.Claim, res *output.Result) error
}

// Registry maps module names to implementations.
type Registry struct {
	mu      sync.RWMutex
	modules map[claim.Module]Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[claim.Module]Module)}
}

// Register adds a module; a second module with the same name is rejected.
func (r *Registry) Register(m Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := m.Name()
	if _, ok := r.modules[name]; ok {
		return errdefs.Validation("module %s is already registered", name)
	}
	r.modules[name] = m
	return nil
}

// Get looks a module up by name.
func (r *Registry) Get(name claim.Module) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// Names returns the registered module names, sorted.
func (r *Registry) Names() []claim.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]claim.Module, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Orchestrator runs claims through their requested modules in dependency
// order. It holds no per-claim state.
type Orchestrator struct {
	reg *Registry
	log zerolog.Logger
}

// New creates an Orchestrator over a registry.
func New(reg *Registry, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{reg: reg, log: log}
}

// Process runs one claim through its requested modules plus whatever those
// modules depend on. Each module runs exactly once; a failed module records
// a typed error in its slot and its dependents are skipped with a dependency
// error, while unrelated modules keep running. The returned error is nil as
// long as at least one requested module produced a result.
func (o *Orchestrator) Process(ctx context.Context, c *claim.Claim) (*output.Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(c.Modules) == 0 {
		return nil, errdefs.Validation("no modules specified in claim")
	}

	requested := dedupe(c.Modules)
	plan, err := o.plan(requested)
	if err != nil {
		return nil, err
	}
	o.log.Debug().Str("claim", c.ClaimID).Interface("plan", plan).Msg("processing claim")

	res := output.NewResult(c.ClaimID)
	errs := make(map[claim.Module]error, len(plan))
	for _, name := range plan {
		if err := ctx.Err(); err != nil {
			errs[name] = err
			res.SetError(name, err)
			continue
		}
		mod, _ := o.reg.Get(name)
		if dep, failed := failedDependency(mod, errs); failed {
			err := &errdefs.DependencyError{Module: string(name), On: string(dep)}
			errs[name] = err
			res.SetError(name, err)
			o.log.Warn().Str("claim", c.ClaimID).Str("module", string(name)).Str("upstream", string(dep)).
				Msg("skipping module, upstream failed")
			continue
		}
		if err := o.run(ctx, mod, c, res); err != nil {
			errs[name] = err
			res.SetError(name, err)
			o.log.Warn().Str("claim", c.ClaimID).Str("module", string(name)).Err(err).Msg("module failed")
		}
	}

	for _, name := range requested {
		if res.Has(name) {
			return res, nil
		}
	}
	// Nothing produced output; surface the first requested module's error.
	for _, name := range requested {
		if err := errs[name]; err != nil {
			return res, err
		}
	}
	return res, errdefs.Validation("no module produced a result")
}

func (o *Orchestrator) run(ctx context.Context, mod Module, c *claim.Claim, res *output.Result) error {
	if err := mod.Validate(c); err != nil {
		return err
	}
	return mod.Process(ctx, c, res)
}

// plan expands the requested modules into their transitive dependency
// closure, ordered so every module runs after its dependencies. Requested
// order is kept wherever dependencies allow.
func (o *Orchestrator) plan(requested []claim.Module) ([]claim.Module, error) {
	order := make([]claim.Module, 0, len(requested))
	seen := make(map[claim.Module]bool, len(requested))

	var visit func(name claim.Module, stack []claim.Module) error
	visit = func(name claim.Module, stack []claim.Module) error {
		if seen[name] {
			return nil
		}
		for _, s := range stack {
			if s == name {
				return errdefs.Validation("module dependency cycle involving %s", name)
			}
		}
		mod, ok := o.reg.Get(name)
		if !ok {
			return errdefs.Validation("no client is registered for module %s", name)
		}
		for _, dep := range mod.Dependencies() {
			if err := visit(dep, append(stack, name)); err != nil {
				return err
			}
		}
		seen[name] = true
		order = append(order, name)
		return nil
	}

	for _, name := range requested {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func failedDependency(mod Module, errs map[claim.Module]error) (claim.Module, bool) {
	for _, dep := range mod.Dependencies() {
		if errs[dep] != nil {
			return dep, true
		}
	}
	return "", false
}

func dedupe(modules []claim.Module) []claim.Module {
	out := make([]claim.Module, 0, len(modules))
	seen := make(map[claim.Module]bool, len(modules))
	for _, m := range modules {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
