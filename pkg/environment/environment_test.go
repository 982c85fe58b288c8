package environment_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/bake/pkg/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *environment.Environment {
	return environment.FromMap(map[string]any{
		"a": 1,
		"b": map[string]any{
			"c": 2,
			"d": map[string]any{"e": 3},
		},
	})
}

func TestEnvironment_Get(t *testing.T) {
	env := sample()

	assert.Equal(t, 1, env.Get("a"))
	assert.Equal(t, 2, env.Get("b.c"))
	assert.Equal(t, 3, env.Get("b.d.e"))
	assert.Equal(t, map[string]any{"e": 3}, env.Get("b.d"))

	for _, path := range []string{"z", "a.z", "b.z", "b.c.z", "b.d.z", "z.a", ""} {
		assert.Nil(t, env.Get(path), "path %q", path)
		assert.Equal(t, "fallback", env.GetDefault(path, "fallback"), "path %q", path)
	}
}

func TestEnvironment_Has(t *testing.T) {
	env := sample()

	assert.True(t, env.Has("a"))
	assert.True(t, env.Has("b"))
	assert.True(t, env.Has("b.d.e"))
	assert.False(t, env.Has("b.d.e.f"))
	assert.False(t, env.Has("a.b"))
	assert.False(t, env.Has("missing"))
}

func TestEnvironment_Set(t *testing.T) {
	env := environment.New()
	env.Set("x.y.z", "deep")
	assert.Equal(t, "deep", env.Get("x.y.z"))
	assert.True(t, env.Has("x.y"))

	// A scalar on the way is replaced by a map.
	env.Set("x.y.z.w", 5)
	assert.Equal(t, 5, env.Get("x.y.z.w"))

	// Setting a map replaces the previous map wholesale.
	env.Set("x.y", map[string]any{"other": true})
	assert.Equal(t, true, env.Get("x.y.other"))
	assert.False(t, env.Has("x.y.z"))
}

func TestEnvironment_SetDoesNotRetainCallerMap(t *testing.T) {
	env := environment.New()
	value := map[string]any{"k": "v"}
	env.Set("m", value)
	value["k"] = "changed"

	assert.Equal(t, "v", env.Get("m.k"))
}

func TestEnvironment_Merge(t *testing.T) {
	env := environment.FromMap(map[string]any{
		"a": 1,
		"b": map[string]any{"c": 2, "d": map[string]any{"e": 3}},
	})
	other := environment.FromMap(map[string]any{
		"a": 2,
		"b": map[string]any{"d": map[string]any{"e": 3}, "f": 4},
	})

	got := env.Merge(other)
	require.Same(t, env, got)
	assert.Equal(t, map[string]any{
		"a": 2,
		"b": map[string]any{"c": 2, "d": map[string]any{"e": 3}, "f": 4},
	}, env.Raw())
}

func TestEnvironment_MergeMapAndScalarReplace(t *testing.T) {
	t.Run("scalar replaces map", func(t *testing.T) {
		env := environment.FromMap(map[string]any{"a": map[string]any{"b": 1}})
		env.Merge(environment.FromMap(map[string]any{"a": "flat"}))
		assert.Equal(t, "flat", env.Get("a"))
		assert.False(t, env.Has("a.b"))
	})

	t.Run("map replaces scalar", func(t *testing.T) {
		env := environment.FromMap(map[string]any{"a": "flat"})
		env.Merge(environment.FromMap(map[string]any{"a": map[string]any{"b": 1}}))
		assert.Equal(t, 1, env.Get("a.b"))
	})

	t.Run("nil merge is a no-op", func(t *testing.T) {
		env := sample()
		env.Merge(nil)
		assert.Equal(t, sample().Raw(), env.Raw())
	})
}

func TestEnvironment_Overlay(t *testing.T) {
	a := environment.FromMap(map[string]any{
		"shared": "a",
		"only_a": "a",
		"nested": map[string]any{"x": 1, "y": 1},
	})
	b := environment.FromMap(map[string]any{
		"shared": "b",
		"nested": map[string]any{"y": 2},
	})

	out := environment.Overlay(map[string]any{"nested.z": 3, "shared": "kw"}, a, b)

	assert.Equal(t, "kw", out.Get("shared"))
	assert.Equal(t, "a", out.Get("only_a"))
	assert.Equal(t, 1, out.Get("nested.x"))
	assert.Equal(t, 2, out.Get("nested.y"))
	assert.Equal(t, 3, out.Get("nested.z"))

	// Inputs are untouched.
	assert.Equal(t, "a", a.Get("shared"))
	assert.Equal(t, 1, a.Get("nested.y"))
	assert.False(t, b.Has("nested.z"))
}

func TestEnvironment_OverlayLaterSourceWins(t *testing.T) {
	a := environment.FromMap(map[string]any{"p": "a"})
	b := environment.FromMap(map[string]any{"p": "b"})

	assert.Equal(t, "b", a.Overlay(nil, b).Get("p"))
	assert.Equal(t, "a", b.Overlay(nil, a).Get("p"))
}

func TestEnvironment_OverlayIsolation(t *testing.T) {
	base := sample()
	view := base.Overlay(map[string]any{"b.c": 99})
	view.Set("a", "mutated")

	assert.Equal(t, 99, view.Get("b.c"))
	assert.Equal(t, 2, base.Get("b.c"))
	assert.Equal(t, 1, base.Get("a"))
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		arg     string
		path    string
		value   string
		wantErr bool
	}{
		{arg: "a.b=1", path: "a.b", value: "1"},
		{arg: "name=", path: "name", value: ""},
		{arg: "expr=x=y", path: "expr", value: "x=y"},
		{arg: "novalue", wantErr: true},
		{arg: "=1", wantErr: true},
		{arg: ".a=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			path, value, err := environment.ParseAssignment(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseAssignments(t *testing.T) {
	env, err := environment.ParseAssignments([]string{"a.b=1", "a.c=two"})
	require.NoError(t, err)
	assert.Equal(t, "1", env.Get("a.b"))
	assert.Equal(t, "two", env.Get("a.c"))

	_, err = environment.ParseAssignments([]string{"bad"})
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.yaml")
	content := "deploy:\n  target: prod\n  replicas: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	env, err := environment.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", env.Get("deploy.target"))
	assert.Equal(t, 3, env.Get("deploy.replicas"))

	_, err = environment.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
