package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

// Registry is an ordered set of agent descriptors. Registration order is
// the tie-break for topological sorting, so it must be deterministic.
// Lookups return clones; the registry is read-only once a build starts.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	agents map[string]*Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{agents: make(map[string]*Descriptor)}
}

// Register adds a descriptor. It rejects invalid descriptors and duplicates.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", foundryerrors.ErrInvalidDescriptor)
	}
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[d.Name]; exists {
		return fmt.Errorf("%w: %s", foundryerrors.ErrDuplicateAgent, d.Name)
	}
	r.agents[d.Name] = d.Clone()
	r.order = append(r.order, d.Name)
	return nil
}

// Get returns a copy of the named descriptor.
func (r *Registry) Get(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", foundryerrors.ErrUnknownAgent, name)
	}
	return d.Clone(), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[name]
	return ok
}

// Names returns agent names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// List returns copies of every descriptor in registration order.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name].Clone())
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Hint returns the remediation message for an agent failure. Unknown
// agents get the generic message.
func (r *Registry) Hint(name string, kind domain.ErrorKind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.agents[name]; ok {
		return d.Hint(kind)
	}
	return GenericHint(name)
}

// update applies fn to the stored descriptor and re-validates it.
func (r *Registry) update(name string, fn func(*Descriptor)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.agents[name]
	if !ok {
		return fmt.Errorf("%w: %s", foundryerrors.ErrUnknownAgent, name)
	}
	next := d.Clone()
	fn(next)
	if err := next.Validate(); err != nil {
		return err
	}
	r.agents[name] = next
	return nil
}

// Validate checks the cross-agent invariants: every dependency is
// registered and every agent has an effect. All violations are reported.
// Cycles are detected by the planner.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.order {
		d := r.agents[name]
		for _, dep := range d.DependsOn {
			if _, ok := r.agents[dep]; !ok {
				errs = append(errs, fmt.Errorf("%w: %w: %s depends on %s", foundryerrors.ErrConfig, foundryerrors.ErrUnknownDependency, name, dep))
			}
		}
		if err := checkEffect(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkEffect(d *Descriptor) error {
	e := d.Effect
	switch {
	case e.Kind == EffectNone:
		return fmt.Errorf("%w: %w: %s", foundryerrors.ErrConfig, foundryerrors.ErrMissingEffect, d.Name)
	case (e.Kind == EffectStateWrite || e.Kind == EffectToolRun) && e.Key == "":
		return fmt.Errorf("%w: %w: %s has %s without a state key", foundryerrors.ErrConfig, foundryerrors.ErrMissingEffect, d.Name, e.Kind)
	case e.Kind == EffectArtifactWrite && e.Path == "":
		return fmt.Errorf("%w: %w: %s has artifact_write without a path", foundryerrors.ErrConfig, foundryerrors.ErrMissingEffect, d.Name)
	}
	return nil
}
