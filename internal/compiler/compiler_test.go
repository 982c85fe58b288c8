package compiler_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/bake/internal/compiler"
	bakeruntime "github.com/aretw0/bake/internal/runtime"
	"github.com/aretw0/bake/pkg/adapters/process"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/environment"
	"github.com/aretw0/bake/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
source: app
environment:
  deploy:
    region: eu
tasks:
  build:
    description: Compile everything
    command: echo building
  deploy:
    description: Ship it
    notes: |
      # Deploy
      Pushes the release.
    requires: [build]
    timeout: 90s
    params:
      target: {type: text, required: true, description: where to}
      replicas: {type: int, default: "2"}
      verbose: bool
    commands:
      - echo "{{ .params.target }} x{{ .params.replicas }} in {{ .env.deploy.region }}"
      - echo "$BAKE_TARGET" | tr a-z A-Z
`

func TestParser_Parse(t *testing.T) {
	bf, err := compiler.NewParser().Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "app", bf.Source)
	assert.Equal(t, map[string]any{"deploy": map[string]any{"region": "eu"}}, bf.Environment)
	require.Len(t, bf.Tasks, 2)

	deploy := bf.Tasks["deploy"]
	assert.Equal(t, []string{"build"}, deploy.Requires)
	assert.Equal(t, 90*time.Second, deploy.Timeout)
	assert.Equal(t, "text", deploy.Params["target"].Type)
	assert.True(t, deploy.Params["target"].Required)
	assert.Equal(t, "bool", deploy.Params["verbose"].Type, "shorthand declaration")
	assert.Len(t, deploy.Commands, 2)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "tasks: [unterminated"},
		{"unknown key", "tasks:\n  a:\n    comand: echo"},
		{"bad duration", "tasks:\n  a:\n    timeout: soon"},
		{"both command forms", "tasks:\n  a:\n    command: x\n    commands: [y]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.NewParser().Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParser_ParseFileDefaultsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tasks:\n  fmt:\n    command: gofmt -l .\n"), 0o644))

	bf, err := compiler.NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tools", bf.Source)

	_, err = compiler.NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCompile(t *testing.T) {
	bf, err := compiler.NewParser().Parse([]byte(sample))
	require.NoError(t, err)

	defs, err := compiler.Compile(bf)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	deploy := defs[1]
	assert.Equal(t, "deploy", deploy.Name)
	assert.Equal(t, "app", deploy.Source)
	assert.True(t, deploy.SupportsDryRun)
	assert.Equal(t, 2, deploy.Parameters["replicas"].Default, "defaults are coerced at compile time")
	assert.Equal(t, "text", deploy.Parameters["target"].TypeName())
	assert.NotNil(t, deploy.Run)
}

func TestCompile_BaseComesFirst(t *testing.T) {
	bf := &compiler.Bakefile{Tasks: map[string]compiler.TaskSpec{
		"a-derived": {Base: "z-base"},
		"z-base":    {Params: map[string]compiler.ParamSpec{"level": {Type: "int", Default: 1}}},
	}}

	r := registry.NewRegistry()
	defs, err := compiler.Load(r, bf)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "z-base", defs[0].Name)
	assert.Contains(t, defs[1].Parameters, "level", "inherited from base")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		bf   *compiler.Bakefile
	}{
		{"unknown type", &compiler.Bakefile{Tasks: map[string]compiler.TaskSpec{
			"a": {Params: map[string]compiler.ParamSpec{"x": {Type: "colour"}}},
		}}},
		{"bad default", &compiler.Bakefile{Tasks: map[string]compiler.TaskSpec{
			"a": {Params: map[string]compiler.ParamSpec{"x": {Type: "int", Default: "many"}}},
		}}},
		{"bad template", &compiler.Bakefile{Tasks: map[string]compiler.TaskSpec{
			"a": {Command: "echo {{ .params.x "},
		}}},
		{"base loop", &compiler.Bakefile{Tasks: map[string]compiler.TaskSpec{
			"a": {Base: "b"},
			"b": {Base: "a"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.Compile(tt.bf)
			assert.Error(t, err)
		})
	}
}

func newEngine(t *testing.T, bf *compiler.Bakefile, out *bytes.Buffer, mode domain.Mode) (*bakeruntime.Engine, *registry.Registry) {
	t.Helper()
	r := registry.NewRegistry()
	_, err := compiler.Load(r, bf)
	require.NoError(t, err)

	e := bakeruntime.NewEngine(r,
		bakeruntime.WithEnvironment(environment.FromMap(bf.Environment)),
		bakeruntime.WithWorkRunner(process.NewRunner(process.WithOutput(out, out))),
		bakeruntime.WithMode(mode),
	)
	return e, r
}

func TestShellBody_RunsRenderedCommands(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell syntax")
	}
	bf, err := compiler.NewParser().Parse([]byte(sample))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	e, r := newEngine(t, bf, out, domain.Mode{})

	def, err := r.Lookup("deploy", "")
	require.NoError(t, err)
	seq, err := e.BuildSchedule([]*domain.Instance{
		domain.NewInstance(def, map[string]any{"target": "prod"}, false),
	})
	require.NoError(t, err)

	_, ok := e.ExecuteSequence(context.Background(), seq)
	require.True(t, ok)
	assert.Equal(t, "building\nprod x2 in eu\nPROD\n", out.String())
}

func TestShellBody_DryRunOnlyReports(t *testing.T) {
	bf := &compiler.Bakefile{Tasks: map[string]compiler.TaskSpec{
		"wipe": {Command: "rm -rf {{ .params.dir }}", Params: map[string]compiler.ParamSpec{"dir": {Type: "path", Default: "/tmp/x"}}},
	}}
	out := &bytes.Buffer{}
	e, r := newEngine(t, bf, out, domain.Mode{DryRun: true})

	def, err := r.Lookup("wipe", "")
	require.NoError(t, err)
	inst := domain.NewInstance(def, nil, false)
	_, ok := e.ExecuteSequence(context.Background(), []*domain.Instance{inst})

	assert.True(t, ok)
	assert.Empty(t, out.String(), "nothing is executed")
	assert.Equal(t, domain.StatusCompleted, inst.Status)
}

func TestShellBody_NonZeroExitFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell syntax")
	}
	bf := &compiler.Bakefile{Tasks: map[string]compiler.TaskSpec{
		"broken": {Commands: []string{"exit 4", "echo unreachable"}},
	}}
	out := &bytes.Buffer{}
	e, r := newEngine(t, bf, out, domain.Mode{})

	def, err := r.Lookup("broken", "")
	require.NoError(t, err)
	inst := domain.NewInstance(def, nil, false)
	_, ok := e.ExecuteSequence(context.Background(), []*domain.Instance{inst})

	assert.False(t, ok)
	var failed *domain.ProcessFailedError
	require.ErrorAs(t, inst.Err, &failed)
	assert.Equal(t, 4, failed.ExitCode)
	assert.NotContains(t, out.String(), "unreachable")
}
