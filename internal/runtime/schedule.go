package runtime

import (
	"github.com/aretw0/bake/pkg/domain"
)

// TopologicalSort orders g so that every instance comes after all of its
// prerequisites.
//
// It runs Kahn's algorithm over the inverse relation: the frontier starts
// with instances nothing depends on, and a prerequisite becomes eligible once
// every dependent still in the graph has been emitted. The emitted order is
// reversed at the end. The frontier is seeded and fed in reverse discovery
// order, so after the reversal independent instances keep the order in which
// they were requested or declared.
//
// A dependency on an instance outside the graph yields a *domain.CycleError
// of kind dangling; an incomplete order yields one of kind cycle carrying a
// deterministic witness path.
func TopologicalSort(g *Graph) ([]*domain.Instance, error) {
	if g == nil || g.Len() == 0 {
		return []*domain.Instance{}, nil
	}

	dependents := make(map[*domain.Instance]int, g.Len())
	for _, n := range g.nodes {
		for _, d := range g.deps[n] {
			if !g.Has(d) {
				return nil, &domain.CycleError{
					Kind: domain.CycleKindDangling,
					Path: []string{n.Name(), d.Name()},
				}
			}
			dependents[d]++
		}
	}

	queue := make([]*domain.Instance, 0, g.Len())
	for i := len(g.nodes) - 1; i >= 0; i-- {
		if dependents[g.nodes[i]] == 0 {
			queue = append(queue, g.nodes[i])
		}
	}

	out := make([]*domain.Instance, 0, g.Len())
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)

		deps := g.deps[n]
		for i := len(deps) - 1; i >= 0; i-- {
			d := deps[i]
			dependents[d]--
			if dependents[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(out) != g.Len() {
		return nil, &domain.CycleError{Kind: domain.CycleKindCycle, Path: findCycle(g)}
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// findCycle performs a DFS in discovery order and returns one cycle as names,
// first node repeated at the end.
func findCycle(g *Graph) []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*domain.Instance]int, g.Len())
	parent := make(map[*domain.Instance]*domain.Instance, g.Len())
	var cycle []*domain.Instance

	var dfs func(u *domain.Instance) bool
	dfs = func(u *domain.Instance) bool {
		color[u] = gray
		for _, v := range g.deps[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v. Walk parents from u back to v.
				cycle = append(cycle, v)
				for cur := u; cur != nil && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for _, n := range g.nodes {
		if color[n] == white && dfs(n) {
			break
		}
	}

	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, cycle[i].Name())
	}
	return out
}
