package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bakefile = `
source: demo
environment:
  greet:
    name: alice
tasks:
  prep:
    command: echo prep
  greet:
    requires: [prep]
    params:
      name: {type: text, required: true}
    command: echo "hello {{ .params.name }}"
  dotenv:
    command: echo "$GREETING"
  broken:
    command: exit 3
`

type fixture struct {
	flags   Flags
	out     *bytes.Buffer
	console *runner.TextConsole
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell syntax")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "bakefile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bakefile), 0o644))

	out := &bytes.Buffer{}
	return &fixture{
		flags:   Flags{File: path},
		out:     out,
		console: runner.NewTextConsole(strings.NewReader(""), out, runner.WithColor(runner.ColorNever)),
	}
}

func (fx *fixture) run(t *testing.T, args ...string) (*domain.RunReport, error) {
	t.Helper()
	s := Streams{Out: fx.out, Err: fx.out}
	engine, history, err := NewEngine(fx.flags, fx.console, s)
	require.NoError(t, err)
	defer history.Close()
	return Run(context.Background(), engine, fx.console, fx.flags, args, s)
}

func TestRun_BakefileEnvironment(t *testing.T) {
	fx := newFixture(t)
	report, err := fx.run(t, "greet")
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Contains(t, fx.out.String(), "prep\n")
	assert.Contains(t, fx.out.String(), "hello alice\n")
	assert.Contains(t, fx.out.String(), "2 of 2 tasks completed")
}

func TestRun_ConfigurationPrecedence(t *testing.T) {
	fx := newFixture(t)
	envFile := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(envFile, []byte("greet:\n  name: carol\n"), 0o644))
	fx.flags.EnvFiles = []string{envFile}

	_, err := fx.run(t, "greet")
	require.NoError(t, err)
	assert.Contains(t, fx.out.String(), "hello carol\n", "env files override the bakefile")

	fx.out.Reset()
	fx.flags.Set = []string{"greet.name=dave"}
	_, err = fx.run(t, "greet")
	require.NoError(t, err)
	assert.Contains(t, fx.out.String(), "hello dave\n", "--set overrides env files")

	fx.out.Reset()
	_, err = fx.run(t, "greet", "name=erin")
	require.NoError(t, err)
	assert.Contains(t, fx.out.String(), "hello erin\n", "explicit parameters win")
}

func TestRun_DotEnv(t *testing.T) {
	fx := newFixture(t)
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("GREETING=howdy\n"), 0o644))
	fx.flags.DotEnv = []string{dotenv}

	_, err := fx.run(t, "dotenv")
	require.NoError(t, err)
	assert.Contains(t, fx.out.String(), "howdy\n")
}

func TestRun_Failure(t *testing.T) {
	fx := newFixture(t)
	fx.flags.Timing = true
	report, err := fx.run(t, "prep", "broken", "greet")
	assert.ErrorIs(t, err, ErrRunFailed)
	require.NotNil(t, report)
	assert.Equal(t, domain.StatusFailed, report.Tasks[1].Status)
	assert.Equal(t, domain.StatusPending, report.Tasks[2].Status)
	assert.NotContains(t, fx.out.String(), "hello")
	assert.Regexp(t, `1 of 3 tasks completed in \d+\.\d{3}s`, fx.out.String())
}

func TestRun_JSON(t *testing.T) {
	fx := newFixture(t)
	fx.flags.JSON = true
	fx.flags.DryRun = true
	report, err := fx.run(t, "greet")
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Contains(t, fx.out.String(), `"id":"`+report.ID+`"`)
	assert.NotContains(t, fx.out.String(), "hello alice\n", "dry runs only report commands")
}

func TestRun_UnknownTasks(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.run(t, "prep", "ghost")
	var unknown *domain.UnknownTaskError
	assert.ErrorAs(t, err, &unknown)

	fx.flags.Interactive = true
	fx.console = runner.NewTextConsole(strings.NewReader("y\n"), fx.out, runner.WithColor(runner.ColorNever))
	report, err := fx.run(t, "ghost", "prep")
	require.NoError(t, err)
	assert.Equal(t, []string{"prep"}, report.Requested)

	fx.console = runner.NewTextConsole(strings.NewReader("y\n"), fx.out, runner.WithColor(runner.ColorNever))
	_, err = fx.run(t, "ghost")
	assert.ErrorIs(t, err, ErrNothingToRun)
}

func TestRun_ParameterBeforeTask(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.run(t, "name=bob", "greet")
	assert.ErrorContains(t, err, "before any task")
}

func TestRun_History(t *testing.T) {
	fx := newFixture(t)
	fx.flags.History = "file:" + filepath.Join(t.TempDir(), "runs")

	report, err := fx.run(t, "prep")
	require.NoError(t, err)

	_, history, err := NewEngine(fx.flags, fx.console, Streams{Out: fx.out, Err: fx.out})
	require.NoError(t, err)
	loaded, err := history.Store.Load(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"prep"}, loaded.Requested)
}

func TestNewEngine_Errors(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
	}{
		{"missing bakefile", Flags{File: "does-not-exist.yaml"}},
		{"missing env file", Flags{EnvFiles: []string{"does-not-exist.yaml"}}},
		{"bad assignment", Flags{Set: []string{"novalue"}}},
		{"missing dotenv", Flags{DotEnv: []string{"does-not-exist.env"}}},
		{"bad history", Flags{History: "ftp://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewEngine(tt.flags, runner.NewTextConsole(nil, &bytes.Buffer{}), Streams{})
			assert.Error(t, err)
		})
	}
}
