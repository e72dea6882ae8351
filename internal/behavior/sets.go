// Package behavior is the real-behavior layer: the tables that tie every
// agent to a concrete effect, the consistency check run before a build,
// and the shaping of agent output into state values.
package behavior

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/registry"
)

// Sets partitions agents by the kind of effect they produce.
type Sets struct {
	// StateWriters maps an agent to the state key it writes.
	StateWriters map[string]string

	// ArtifactPaths maps an agent to the workspace file it writes.
	ArtifactPaths map[string]string

	// ToolRunners maps an agent to the state key its tool output lands in.
	ToolRunners map[string]string

	// RealTools holds agents whose tool output is inspected but not kept
	// under a fixed key.
	RealTools map[string]bool

	// Special holds agents whose effect is delegated (media, scraping).
	Special map[string]bool
}

// NewSets returns empty sets.
func NewSets() *Sets {
	return &Sets{
		StateWriters:  map[string]string{},
		ArtifactPaths: map[string]string{},
		ToolRunners:   map[string]string{},
		RealTools:     map[string]bool{},
		Special:       map[string]bool{},
	}
}

// Contains reports whether name is wired in any set.
func (s *Sets) Contains(name string) bool {
	_, sw := s.StateWriters[name]
	_, ap := s.ArtifactPaths[name]
	_, tr := s.ToolRunners[name]
	return sw || ap || tr || s.RealTools[name] || s.Special[name]
}

// Effect returns the effect implied by the sets for name.
func (s *Sets) Effect(name string) (registry.Effect, bool) {
	if key, ok := s.StateWriters[name]; ok {
		return registry.StateWrite(key), true
	}
	if path, ok := s.ArtifactPaths[name]; ok {
		return registry.ArtifactWrite(path), true
	}
	if key, ok := s.ToolRunners[name]; ok {
		return registry.ToolRun(key), true
	}
	if s.RealTools[name] {
		return registry.RealTool(), true
	}
	if s.Special[name] {
		return registry.Special(), true
	}
	return registry.Effect{}, false
}

// Size returns the number of agents across all sets.
func (s *Sets) Size() int {
	return len(s.StateWriters) + len(s.ArtifactPaths) + len(s.ToolRunners) + len(s.RealTools) + len(s.Special)
}

// FromRegistry derives the sets from descriptor effects.
func FromRegistry(reg *registry.Registry) *Sets {
	s := NewSets()
	for _, d := range reg.List() {
		switch d.Effect.Kind {
		case registry.EffectStateWrite:
			s.StateWriters[d.Name] = d.Effect.Key
		case registry.EffectArtifactWrite:
			s.ArtifactPaths[d.Name] = d.Effect.Path
		case registry.EffectToolRun:
			s.ToolRunners[d.Name] = d.Effect.Key
		case registry.EffectRealTool:
			s.RealTools[d.Name] = true
		case registry.EffectSpecial:
			s.Special[d.Name] = true
		case registry.EffectNone:
		}
	}
	return s
}

// Check verifies that every registry agent is wired in exactly one set
// and, when the registry declares an effect, that it agrees with the
// sets. All violations are joined.
func Check(reg *registry.Registry, sets *Sets) error {
	var errs []error
	for _, d := range reg.List() {
		if n := sets.membership(d.Name); n > 1 {
			errs = append(errs, fmt.Errorf("%w: %s is wired in %d effect sets", foundryerrors.ErrConfig, d.Name, n))
			continue
		}
		want, ok := sets.Effect(d.Name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %w: %s", foundryerrors.ErrConfig, foundryerrors.ErrMissingEffect, d.Name))
			continue
		}
		if d.Effect.Kind != registry.EffectNone && !sameTarget(d.Effect, want) {
			errs = append(errs, fmt.Errorf("%w: %s declares %s but is wired as %s", foundryerrors.ErrConfig, d.Name, d.Effect, want))
		}
	}
	return errors.Join(errs...)
}

func (s *Sets) membership(name string) int {
	n := 0
	for _, in := range []bool{
		hasKey(s.StateWriters, name),
		hasKey(s.ArtifactPaths, name),
		hasKey(s.ToolRunners, name),
		s.RealTools[name],
		s.Special[name],
	} {
		if in {
			n++
		}
	}
	return n
}

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}

// sameTarget compares kind and destination, ignoring tool commands.
func sameTarget(a, b registry.Effect) bool {
	return a.Kind == b.Kind && a.Key == b.Key && a.Path == b.Path
}

// Agents returns every wired agent name, sorted.
func (s *Sets) Agents() []string {
	names := slices.Collect(maps.Keys(s.StateWriters))
	names = append(names, slices.Collect(maps.Keys(s.ArtifactPaths))...)
	names = append(names, slices.Collect(maps.Keys(s.ToolRunners))...)
	names = append(names, slices.Collect(maps.Keys(s.RealTools))...)
	names = append(names, slices.Collect(maps.Keys(s.Special))...)
	slices.Sort(names)
	return slices.Compact(names)
}
