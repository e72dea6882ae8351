package dag

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/registry"
)

type spec struct {
	name string
	deps []string
}

func buildRegistry(t *testing.T, specs ...spec) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, s := range specs {
		require.NoError(t, r.Register(&registry.Descriptor{
			Name:        s.name,
			DependsOn:   s.deps,
			Criticality: domain.CriticalityLow,
			Timeout:     time.Second,
			Kind:        registry.KindLLM,
			Effect:      registry.StateWrite(s.name),
		}))
	}
	return r
}

func TestBuild_TwoAgents(t *testing.T) {
	r := buildRegistry(t, spec{"A", nil}, spec{"B", []string{"A"}})

	plan, err := Build(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, plan.Order)
	assert.Equal(t, [][]string{{"A"}, {"B"}}, plan.Phases)
	assert.Equal(t, 1, plan.PhaseOf("B"))
	assert.Equal(t, -1, plan.PhaseOf("Z"))
}

func TestSort_StableOnRegistrationOrder(t *testing.T) {
	r := buildRegistry(t,
		spec{"Root", nil},
		spec{"Zeta", []string{"Root"}},
		spec{"Alpha", []string{"Root"}},
		spec{"Other Root", nil},
		spec{"Mid", []string{"Alpha"}},
	)

	order, err := Sort(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"Root", "Zeta", "Alpha", "Other Root", "Mid"}, order)

	again, err := Sort(r)
	require.NoError(t, err)
	assert.Equal(t, order, again)
}

func TestBuild_DiamondPhases(t *testing.T) {
	r := buildRegistry(t,
		spec{"Planner", nil},
		spec{"Frontend", []string{"Stack"}},
		spec{"Stack", []string{"Planner"}},
		spec{"Backend", []string{"Stack"}},
		spec{"Security", []string{"Frontend", "Backend"}},
		spec{"Content", []string{"Planner"}},
	)

	plan, err := Build(r)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Planner"},
		{"Stack", "Content"},
		{"Frontend", "Backend"},
		{"Security"},
	}, plan.Phases)
}

func TestSort_CycleIsNamed(t *testing.T) {
	r := buildRegistry(t,
		spec{"Root", nil},
		spec{"A", []string{"Root", "C"}},
		spec{"B", []string{"A"}},
		spec{"C", []string{"B"}},
		spec{"Leaf", []string{"C"}},
	)

	_, err := Sort(r)
	require.ErrorIs(t, err, foundryerrors.ErrCycleDetected)
	require.ErrorIs(t, err, foundryerrors.ErrConfig)

	var cycle *foundryerrors.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"A", "C", "B", "A"}, cycle.Nodes)

	_, err = Phases(r)
	require.ErrorIs(t, err, foundryerrors.ErrCycleDetected)
}

func TestSort_UnknownDependency(t *testing.T) {
	r := buildRegistry(t, spec{"A", []string{"Ghost"}})
	_, err := Sort(r)
	require.ErrorIs(t, err, foundryerrors.ErrUnknownDependency)
}

func TestSort_Empty(t *testing.T) {
	plan, err := Build(registry.New())
	require.NoError(t, err)
	assert.Empty(t, plan.Order)
	assert.Empty(t, plan.Phases)
}

// Random DAGs: edges only point to earlier registrations, so the graph is
// acyclic by construction.
func TestBuild_RandomGraphProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data

	for round := 0; round < 25; round++ {
		n := 1 + rng.Intn(40)
		specs := make([]spec, n)
		for i := range specs {
			specs[i].name = string(rune('A'+i%26)) + string(rune('a'+i/26))
			for j := 0; j < i; j++ {
				if rng.Intn(6) == 0 {
					specs[i].deps = append(specs[i].deps, specs[j].name)
				}
			}
		}
		rng.Shuffle(len(specs), func(i, j int) { specs[i], specs[j] = specs[j], specs[i] })
		r := buildRegistry(t, specs...)

		plan, err := Build(r)
		require.NoError(t, err)
		assertPlanInvariants(t, r, plan)
	}
}

func assertPlanInvariants(t *testing.T, r *registry.Registry, plan *Plan) {
	t.Helper()
	require.Len(t, plan.Order, r.Len())

	pos := make(map[string]int, len(plan.Order))
	for i, name := range plan.Order {
		_, dup := pos[name]
		require.False(t, dup, "%s appears twice", name)
		pos[name] = i
	}

	var sources, flat []string
	for _, d := range r.List() {
		if len(d.DependsOn) == 0 {
			sources = append(sources, d.Name)
		}
		for _, dep := range d.DependsOn {
			require.Less(t, pos[dep], pos[d.Name], "%s must precede %s", dep, d.Name)
			require.Less(t, plan.PhaseOf(dep), plan.PhaseOf(d.Name))
		}
	}
	for _, phase := range plan.Phases {
		flat = append(flat, phase...)
	}
	assert.ElementsMatch(t, r.Names(), flat)
	require.NotEmpty(t, plan.Phases)
	assert.ElementsMatch(t, sources, plan.Phases[0])
}
