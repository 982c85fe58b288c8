package domain_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstance_Transition(t *testing.T) {
	def := &domain.Definition{Name: "build"}

	t.Run("pending to running to completed", func(t *testing.T) {
		inst := domain.NewInstance(def, nil, false)
		require.NoError(t, inst.Transition(domain.StatusRunning))
		require.NoError(t, inst.Transition(domain.StatusCompleted))
		assert.True(t, inst.Status.IsTerminal())
	})

	t.Run("pending straight to terminal", func(t *testing.T) {
		for _, to := range []domain.Status{domain.StatusCompleted, domain.StatusFailed, domain.StatusSkipped} {
			inst := domain.NewInstance(def, nil, false)
			assert.NoError(t, inst.Transition(to), "to %s", to)
		}
	})

	t.Run("terminal states are final", func(t *testing.T) {
		for _, from := range []domain.Status{domain.StatusCompleted, domain.StatusFailed, domain.StatusSkipped} {
			inst := domain.NewInstance(def, nil, false)
			require.NoError(t, inst.Transition(from))
			err := inst.Transition(domain.StatusRunning)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, from, inst.Status)
		}
	})

	t.Run("running cannot be skipped", func(t *testing.T) {
		inst := domain.NewInstance(def, nil, false)
		require.NoError(t, inst.Transition(domain.StatusRunning))
		assert.ErrorIs(t, inst.Transition(domain.StatusSkipped), domain.ErrInvalidTransition)
	})
}

func TestInstance_ParamsAreCopied(t *testing.T) {
	params := map[string]any{"target": "prod"}
	inst := domain.NewInstance(&domain.Definition{Name: "deploy"}, params, false)
	params["target"] = "dev"

	assert.Equal(t, "prod", inst.Params["target"])
	assert.Equal(t, map[string]any{"deploy.target": "prod"}, inst.Overrides())
}

func TestInstance_Duration(t *testing.T) {
	inst := domain.NewInstance(&domain.Definition{Name: "x"}, nil, false)
	assert.Zero(t, inst.Duration())

	inst.StartedAt = time.Unix(100, 0)
	inst.FinishedAt = time.Unix(102, 0)
	assert.Equal(t, 2*time.Second, inst.Duration())
}

func TestDefinition_QualifiedKey(t *testing.T) {
	def := &domain.Definition{Name: "deploy"}
	assert.Equal(t, "deploy.target", def.QualifiedKey("target"))
	assert.Equal(t, "deploy.target", def.QualifiedKey("deploy.target"))
	assert.Equal(t, "deploy.deployment", def.QualifiedKey("deployment"))
	assert.Equal(t, "build.flags", def.QualifiedKey("build.flags"), "other paths stay as given")
}

func TestInstance_OverridesKeepForeignPaths(t *testing.T) {
	inst := domain.NewInstance(&domain.Definition{Name: "build"}, map[string]any{
		"mode":    "fast",
		"other.x": 1,
	}, false)
	assert.Equal(t, map[string]any{"build.mode": "fast", "other.x": 1}, inst.Overrides())
}

func TestContext_GetSet(t *testing.T) {
	def := &domain.Definition{Name: "deploy"}
	inst := domain.NewInstance(def, nil, false)
	env := environment.FromMap(map[string]any{"deploy": map[string]any{"target": "prod"}})
	c := domain.NewContext(context.Background(), inst, &domain.Runtime{}, env)

	assert.Equal(t, "prod", c.Get("target"))
	assert.Equal(t, "prod", c.String("deploy.target"))

	c.Set("region", "eu")
	assert.Equal(t, "eu", env.Get("deploy.region"))
}

type stubWork struct {
	code int
	err  error
}

func (s stubWork) RunWork(ctx context.Context, cmdline string, timeout time.Duration) (int, error) {
	return s.code, s.err
}

func TestContext_Shell(t *testing.T) {
	inst := domain.NewInstance(&domain.Definition{Name: "x"}, nil, false)

	c := domain.NewContext(context.Background(), inst, &domain.Runtime{Work: stubWork{code: 0}}, environment.New())
	assert.NoError(t, c.Shell("true", 0))

	c = domain.NewContext(context.Background(), inst, &domain.Runtime{Work: stubWork{code: 2}}, environment.New())
	var taskErr *domain.TaskError
	require.ErrorAs(t, c.Shell("false", 0), &taskErr)
	assert.Contains(t, taskErr.Error(), "status 2")
	var failed *domain.ProcessFailedError
	require.ErrorAs(t, taskErr, &failed)
	assert.Equal(t, 2, failed.ExitCode)
	assert.Equal(t, "false", failed.Cmdline)

	c = domain.NewContext(context.Background(), inst, &domain.Runtime{}, environment.New())
	assert.Error(t, c.Shell("true", 0))
}

func TestErrors(t *testing.T) {
	err := domain.Failf("cannot open: %w", fs.ErrNotExist)
	var taskErr *domain.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "cannot open: file does not exist", err.Error())
	assert.ErrorIs(t, err, fs.ErrNotExist)

	amb := &domain.AmbiguousTaskError{Name: "build", Candidates: []string{"a.build", "b.build"}}
	assert.Contains(t, amb.Error(), "a.build, b.build")

	missing := &domain.MissingParameterError{Key: "deploy.target"}
	assert.Contains(t, missing.Error(), "deploy.target")

	cycle := &domain.CycleError{Kind: domain.CycleKindCycle, Path: []string{"a", "b", "a"}}
	assert.Equal(t, "dependency cycle: a -> b -> a", cycle.Error())

	unhandled := &domain.UnhandledTaskError{Task: "x", Err: errors.New("boom")}
	assert.ErrorContains(t, unhandled, "boom")
}

func TestLifecycleHooks_Chain(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnTaskStart: func(context.Context, *domain.TaskEvent) { calls = append(calls, "first") },
	}
	second := domain.LifecycleHooks{
		OnTaskStart:  func(context.Context, *domain.TaskEvent) { calls = append(calls, "second") },
		OnTaskFinish: func(context.Context, *domain.TaskEvent) { calls = append(calls, "finish") },
	}

	hooks := first.Chain(second)
	hooks.OnTaskStart(context.Background(), &domain.TaskEvent{})
	hooks.OnTaskFinish(context.Background(), &domain.TaskEvent{})

	assert.Equal(t, []string{"first", "second", "finish"}, calls)
	assert.Nil(t, hooks.OnRunStart)
}

func TestRunReport_Count(t *testing.T) {
	report := &domain.RunReport{Tasks: []domain.TaskResult{
		{Status: domain.StatusCompleted},
		{Status: domain.StatusCompleted},
		{Status: domain.StatusFailed},
	}}
	assert.Equal(t, 2, report.Count(domain.StatusCompleted))
	assert.Equal(t, 1, report.Count(domain.StatusFailed))
	assert.Equal(t, 0, report.Count(domain.StatusSkipped))
}

func TestRunReport_Finish(t *testing.T) {
	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	report := domain.NewRunReport([]string{"deploy"}, true, started)
	assert.Len(t, report.ID, 36, "uuid string form")
	assert.True(t, report.DryRun)

	other := domain.NewRunReport(nil, false, started)
	assert.NotEqual(t, report.ID, other.ID)

	build := domain.NewInstance(&domain.Definition{Name: "build", Fullname: "app.build"}, nil, true)
	require.NoError(t, build.Transition(domain.StatusCompleted))
	deploy := domain.NewInstance(&domain.Definition{Name: "deploy", Fullname: "app.deploy"}, nil, false)

	report.Finish([]*domain.Instance{build, deploy}, false, started.Add(time.Minute))
	require.Len(t, report.Tasks, 2)
	assert.Equal(t, "app.build", report.Tasks[0].Fullname)
	assert.True(t, report.Tasks[0].Independent)
	assert.Equal(t, domain.StatusPending, report.Tasks[1].Status, "unreached instances are recorded")
	assert.Equal(t, time.Minute, report.FinishedAt.Sub(report.StartedAt))

	clone := report.Clone()
	clone.Tasks[0].Status = domain.StatusFailed
	assert.Equal(t, domain.StatusCompleted, report.Tasks[0].Status)
}
