package runtime

import (
	"fmt"

	"github.com/aretw0/bake/pkg/domain"
)

// LookupFunc resolves a requirement name to a definition.
type LookupFunc func(name string) (*domain.Definition, error)

// Graph maps each instance to the instances it depends on.
// Nodes keep their discovery order so that scheduling is deterministic.
type Graph struct {
	nodes []*domain.Instance
	deps  map[*domain.Instance][]*domain.Instance
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{deps: make(map[*domain.Instance][]*domain.Instance)}
}

// Add inserts inst with the given prerequisites. Adding an instance twice
// replaces its prerequisites but keeps its original position.
func (g *Graph) Add(inst *domain.Instance, deps ...*domain.Instance) {
	if _, ok := g.deps[inst]; !ok {
		g.nodes = append(g.nodes, inst)
	}
	g.deps[inst] = append([]*domain.Instance(nil), deps...)
}

// Has reports whether inst is a node of the graph.
func (g *Graph) Has(inst *domain.Instance) bool {
	_, ok := g.deps[inst]
	return ok
}

// Nodes returns the instances in discovery order.
func (g *Graph) Nodes() []*domain.Instance {
	return append([]*domain.Instance(nil), g.nodes...)
}

// DependenciesOf returns the prerequisites of inst.
func (g *Graph) DependenciesOf(inst *domain.Instance) []*domain.Instance {
	return append([]*domain.Instance(nil), g.deps[inst]...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// BuildGraph expands requested instances into the transitive closure of
// their requirements.
//
// Every requested instance is known under its definition before expansion
// starts. When a requirement has no known instance yet, an independent one
// is synthesized and expanded in turn. A dependent depends on every known
// instance of each required task.
func BuildGraph(requested []*domain.Instance, lookup LookupFunc) (*Graph, error) {
	known := make(map[string][]*domain.Instance)
	for _, inst := range requested {
		key := inst.Definition.Fullname
		known[key] = appendUnique(known[key], inst)
	}

	g := NewGraph()
	queue := append([]*domain.Instance(nil), requested...)

	for len(queue) > 0 {
		inst := queue[0]
		queue = queue[1:]
		if g.Has(inst) {
			continue
		}

		var deps []*domain.Instance
		for _, name := range inst.Definition.Requires {
			def, err := lookup(name)
			if err != nil {
				return nil, fmt.Errorf("task %s requires %q: %w", inst.Name(), name, err)
			}

			if len(known[def.Fullname]) == 0 {
				synthesized := domain.NewInstance(def, nil, true)
				known[def.Fullname] = []*domain.Instance{synthesized}
				queue = append(queue, synthesized)
			}

			for _, candidate := range known[def.Fullname] {
				deps = appendUnique(deps, candidate)
			}
		}

		inst.Dependencies = deps
		g.Add(inst, deps...)
	}

	return g, nil
}

func appendUnique(list []*domain.Instance, inst *domain.Instance) []*domain.Instance {
	for _, existing := range list {
		if existing == inst {
			return list
		}
	}
	return append(list, inst)
}
