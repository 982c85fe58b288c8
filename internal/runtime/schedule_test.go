package runtime_test

import (
	"testing"

	"github.com/aretw0/bake/internal/runtime"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupIn(t *testing.T, defs ...*domain.Definition) runtime.LookupFunc {
	t.Helper()
	r := newRegistry(defs...)
	return func(name string) (*domain.Definition, error) { return r.Lookup(name, "") }
}

func TestBuildGraph_SynthesizesRequirements(t *testing.T) {
	lookup := lookupIn(t,
		&domain.Definition{Name: "a", Requires: []string{"b"}},
		&domain.Definition{Name: "b", Requires: []string{"c"}},
		&domain.Definition{Name: "c"},
	)
	a, _ := lookup("a")

	req := domain.NewInstance(a, nil, false)
	g, err := runtime.BuildGraph([]*domain.Instance{req}, lookup)
	require.NoError(t, err)

	require.Equal(t, 3, g.Len())
	assert.Equal(t, []string{"a", "b", "c"}, names(g.Nodes()))

	b := g.DependenciesOf(req)[0]
	assert.True(t, b.Independent)
	assert.Equal(t, "b", b.Name())
	assert.Equal(t, []*domain.Instance{b}, req.Dependencies)
	assert.Equal(t, "c", g.DependenciesOf(b)[0].Name())
	assert.False(t, req.Independent)
}

func TestBuildGraph_FansOutToEveryQueuedInstance(t *testing.T) {
	lookup := lookupIn(t,
		&domain.Definition{Name: "package", Requires: []string{"build"}},
		&domain.Definition{Name: "build"},
	)
	pkgDef, _ := lookup("package")
	buildDef, _ := lookup("build")

	b1 := domain.NewInstance(buildDef, map[string]any{"target": "linux"}, false)
	b2 := domain.NewInstance(buildDef, map[string]any{"target": "darwin"}, false)
	p := domain.NewInstance(pkgDef, nil, false)

	g, err := runtime.BuildGraph([]*domain.Instance{b1, b2, p}, lookup)
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len(), "no build instance is synthesized when one is queued")
	assert.Equal(t, []*domain.Instance{b1, b2}, g.DependenciesOf(p))
}

func TestBuildGraph_SharedRequirementSynthesizedOnce(t *testing.T) {
	lookup := lookupIn(t,
		&domain.Definition{Name: "x", Requires: []string{"setup"}},
		&domain.Definition{Name: "y", Requires: []string{"setup"}},
		&domain.Definition{Name: "setup"},
	)
	x, _ := lookup("x")
	y, _ := lookup("y")

	ix := domain.NewInstance(x, nil, false)
	iy := domain.NewInstance(y, nil, false)
	g, err := runtime.BuildGraph([]*domain.Instance{ix, iy}, lookup)
	require.NoError(t, err)

	require.Equal(t, 3, g.Len())
	assert.Same(t, g.DependenciesOf(ix)[0], g.DependenciesOf(iy)[0])
}

func TestBuildGraph_UnknownRequirement(t *testing.T) {
	lookup := lookupIn(t, &domain.Definition{Name: "a", Requires: []string{"ghost"}})
	a, _ := lookup("a")

	_, err := runtime.BuildGraph([]*domain.Instance{domain.NewInstance(a, nil, false)}, lookup)
	var unknown *domain.UnknownTaskError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.Name)
}

func TestTopologicalSort_Empty(t *testing.T) {
	seq, err := runtime.TopologicalSort(runtime.NewGraph())
	require.NoError(t, err)
	assert.Empty(t, seq)

	seq, err = runtime.TopologicalSort(nil)
	require.NoError(t, err)
	assert.Empty(t, seq)
}

func TestTopologicalSort_RespectsEveryEdge(t *testing.T) {
	defs := map[string]*domain.Definition{}
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		defs[n] = &domain.Definition{Name: n}
	}
	inst := func(n string) *domain.Instance { return domain.NewInstance(defs[n], nil, false) }

	a, b, c, d, e, f := inst("a"), inst("b"), inst("c"), inst("d"), inst("e"), inst("f")
	g := runtime.NewGraph()
	g.Add(a, b, c)
	g.Add(b, d)
	g.Add(c, d, e)
	g.Add(d)
	g.Add(e, f)
	g.Add(f)

	seq, err := runtime.TopologicalSort(g)
	require.NoError(t, err)
	require.Len(t, seq, 6)

	for _, n := range g.Nodes() {
		for _, dep := range g.DependenciesOf(n) {
			assert.Less(t, indexOf(seq, dep), indexOf(seq, n), "%s must run before %s", dep.Name(), n.Name())
		}
	}
}

func TestTopologicalSort_Deterministic(t *testing.T) {
	build := func() []string {
		defs := map[string]*domain.Definition{}
		for _, n := range []string{"x", "y", "z", "shared"} {
			defs[n] = &domain.Definition{Name: n}
		}
		shared := domain.NewInstance(defs["shared"], nil, true)
		g := runtime.NewGraph()
		for _, n := range []string{"x", "y", "z"} {
			g.Add(domain.NewInstance(defs[n], nil, false), shared)
		}
		g.Add(shared)
		seq, err := runtime.TopologicalSort(g)
		require.NoError(t, err)
		return names(seq)
	}

	first := build()
	assert.Equal(t, []string{"shared", "x", "y", "z"}, first, "independent instances keep request order")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, build())
	}
}

func TestTopologicalSort_DeclaredRequirementOrder(t *testing.T) {
	lookup := lookupIn(t,
		&domain.Definition{Name: "release", Requires: []string{"lint", "test", "build"}},
		&domain.Definition{Name: "lint"},
		&domain.Definition{Name: "test"},
		&domain.Definition{Name: "build"},
	)
	release, _ := lookup("release")

	g, err := runtime.BuildGraph([]*domain.Instance{domain.NewInstance(release, nil, false)}, lookup)
	require.NoError(t, err)
	seq, err := runtime.TopologicalSort(g)
	require.NoError(t, err)

	assert.Equal(t, []string{"lint", "test", "build", "release"}, names(seq))
}

func TestTopologicalSort_Cycle(t *testing.T) {
	defA := &domain.Definition{Name: "a"}
	defB := &domain.Definition{Name: "b"}
	defC := &domain.Definition{Name: "c"}
	a := domain.NewInstance(defA, nil, false)
	b := domain.NewInstance(defB, nil, false)
	c := domain.NewInstance(defC, nil, false)

	g := runtime.NewGraph()
	g.Add(c)
	g.Add(a, b)
	g.Add(b, a)

	seq, err := runtime.TopologicalSort(g)
	assert.Nil(t, seq)

	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, domain.CycleKindCycle, cycle.Kind)
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
}

func TestTopologicalSort_SelfLoop(t *testing.T) {
	a := domain.NewInstance(&domain.Definition{Name: "a"}, nil, false)
	g := runtime.NewGraph()
	g.Add(a, a)

	_, err := runtime.TopologicalSort(g)
	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "a"}, cycle.Path)
}

func TestTopologicalSort_Dangling(t *testing.T) {
	a := domain.NewInstance(&domain.Definition{Name: "a"}, nil, false)
	ghost := domain.NewInstance(&domain.Definition{Name: "ghost"}, nil, false)

	g := runtime.NewGraph()
	g.Add(a, ghost)

	_, err := runtime.TopologicalSort(g)
	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, domain.CycleKindDangling, cycle.Kind)
	assert.Equal(t, []string{"a", "ghost"}, cycle.Path)
}

func TestBuildGraph_RequirementCycleIsReported(t *testing.T) {
	lookup := lookupIn(t,
		&domain.Definition{Name: "a", Requires: []string{"b"}},
		&domain.Definition{Name: "b", Requires: []string{"a"}},
	)
	a, _ := lookup("a")

	g, err := runtime.BuildGraph([]*domain.Instance{domain.NewInstance(a, nil, false)}, lookup)
	require.NoError(t, err)

	_, err = runtime.TopologicalSort(g)
	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
}
