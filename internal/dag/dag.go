// Package dag orders registry agents for execution: a topological sort
// that is stable on registration order, and grouping into phases whose
// members can run concurrently.
package dag

import (
	"container/heap"
	"fmt"

	foundryerrors "github.com/mrz1836/foundry/internal/errors"
	"github.com/mrz1836/foundry/internal/registry"
)

// Plan is the execution layout for a registry.
type Plan struct {
	// Order lists every agent after all of its dependencies.
	Order []string `json:"order"`

	// Phases groups agents by dependency depth. Every agent in phase k
	// depends only on agents in phases before k.
	Phases [][]string `json:"phases"`
}

// Len returns the number of agents in the plan.
func (p *Plan) Len() int {
	return len(p.Order)
}

// PhaseOf returns the zero-based phase index of name, or -1.
func (p *Plan) PhaseOf(name string) int {
	for i, phase := range p.Phases {
		for _, n := range phase {
			if n == name {
				return i
			}
		}
	}
	return -1
}

// node is the planner's view of one registry entry.
type node struct {
	name  string
	index int
	deps  []string
}

func nodes(reg *registry.Registry) ([]node, map[string]int, error) {
	list := reg.List()
	index := make(map[string]int, len(list))
	out := make([]node, len(list))
	for i, d := range list {
		index[d.Name] = i
		out[i] = node{name: d.Name, index: i, deps: d.DependsOn}
	}
	for _, n := range out {
		for _, dep := range n.deps {
			if _, ok := index[dep]; !ok {
				return nil, nil, fmt.Errorf("%w: %w: %s depends on %s", foundryerrors.ErrConfig, foundryerrors.ErrUnknownDependency, n.name, dep)
			}
		}
	}
	return out, index, nil
}

// indexHeap pops the lowest registration index first.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) } //nolint:forcetypeassert // heap only holds ints

func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Sort returns a topological order of the registry. Among agents that are
// ready at the same time, the one registered first comes first. A cycle
// yields a *errors.CycleError naming its members.
func Sort(reg *registry.Registry) ([]string, error) {
	ns, index, err := nodes(reg)
	if err != nil {
		return nil, err
	}

	inDegree := make([]int, len(ns))
	dependents := make([][]int, len(ns))
	for _, n := range ns {
		for _, dep := range n.deps {
			inDegree[n.index]++
			dependents[index[dep]] = append(dependents[index[dep]], n.index)
		}
	}

	ready := &indexHeap{}
	for i, d := range inDegree {
		if d == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	order := make([]string, 0, len(ns))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int) //nolint:forcetypeassert // heap only holds ints
		order = append(order, ns[i].name)
		for _, dependent := range dependents[i] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(order) != len(ns) {
		return nil, &foundryerrors.CycleError{Nodes: findCycle(ns, index, inDegree)}
	}
	return order, nil
}

// findCycle walks the unsorted remainder and returns one cycle as
// [a, b, ..., a], starting from the earliest registered member.
func findCycle(ns []node, index map[string]int, inDegree []int) []string {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(ns))
	var stack []int
	var cycle []string

	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = gray
		stack = append(stack, i)
		for _, dep := range ns[i].deps {
			j := index[dep]
			switch color[j] {
			case gray:
				start := 0
				for k, s := range stack {
					if s == j {
						start = k
						break
					}
				}
				for _, s := range stack[start:] {
					cycle = append(cycle, ns[s].name)
				}
				cycle = append(cycle, ns[j].name)
				return true
			case white:
				if visit(j) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		return false
	}

	for i := range ns {
		if inDegree[i] > 0 && color[i] == white && visit(i) {
			return cycle
		}
	}
	return nil
}

// Phases groups the topological order by dependency depth. The first
// phase holds exactly the agents without dependencies.
func Phases(reg *registry.Registry) ([][]string, error) {
	plan, err := Build(reg)
	if err != nil {
		return nil, err
	}
	return plan.Phases, nil
}

// Build sorts the registry and groups it into phases.
func Build(reg *registry.Registry) (*Plan, error) {
	order, err := Sort(reg)
	if err != nil {
		return nil, err
	}

	deps := make(map[string][]string, len(order))
	for _, d := range reg.List() {
		deps[d.Name] = d.DependsOn
	}

	level := make(map[string]int, len(order))
	var phases [][]string
	for _, name := range order {
		lvl := 0
		for _, dep := range deps[name] {
			if l := level[dep] + 1; l > lvl {
				lvl = l
			}
		}
		level[name] = lvl
		for len(phases) <= lvl {
			phases = append(phases, nil)
		}
		phases[lvl] = append(phases[lvl], name)
	}
	return &Plan{Order: order, Phases: phases}, nil
}
