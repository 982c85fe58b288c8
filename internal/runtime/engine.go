package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/bake/internal/logging"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/environment"
)

// Resolver finds definitions by name.
type Resolver interface {
	Lookup(name, prefix string) (*domain.Definition, error)
}

// Engine builds schedules and drives their sequential execution.
// A single goroutine runs the tasks; the only concurrency is the body of one
// task racing its own timeout.
type Engine struct {
	resolver Resolver
	prefix   string
	env      *environment.Environment
	runtime  *domain.Runtime
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPrefix sets the prefix tried when resolving short task names.
func WithPrefix(prefix string) Option {
	return func(e *Engine) { e.prefix = prefix }
}

// WithEnvironment sets the ambient configuration shared by all tasks.
func WithEnvironment(env *environment.Environment) Option {
	return func(e *Engine) {
		if env != nil {
			e.env = env
		}
	}
}

// WithMode sets the run flags.
func WithMode(mode domain.Mode) Option {
	return func(e *Engine) { e.runtime.Mode = mode }
}

// WithConsole sets the message sink and confirmation prompt.
func WithConsole(c domain.Console) Option {
	return func(e *Engine) {
		if c != nil {
			e.runtime.Console = c
		}
	}
}

// WithWorkRunner sets the process runner exposed to task bodies.
func WithWorkRunner(w domain.WorkRunner) Option {
	return func(e *Engine) { e.runtime.Work = w }
}

// WithHooks sets the lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine resolving definitions through resolver.
func NewEngine(resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		env:      environment.New(),
		runtime:  &domain.Runtime{Console: nopConsole{}},
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.runtime.Logger = e.logger
	return e
}

// Environment returns the ambient configuration.
func (e *Engine) Environment() *environment.Environment {
	return e.env
}

// Mode returns the run flags.
func (e *Engine) Mode() domain.Mode {
	return e.runtime.Mode
}

// Lookup resolves name using the engine's prefix.
func (e *Engine) Lookup(name string) (*domain.Definition, error) {
	return e.resolver.Lookup(name, e.prefix)
}

// BuildSchedule expands requested into its dependency graph and orders it.
func (e *Engine) BuildSchedule(requested []*domain.Instance) ([]*domain.Instance, error) {
	g, err := BuildGraph(requested, e.Lookup)
	if err != nil {
		return nil, err
	}
	seq, err := TopologicalSort(g)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("schedule built", "requested", len(requested), "scheduled", len(seq))
	return seq, nil
}

// ExecuteSequence runs seq strictly in order. It stops at the first instance
// whose failure is fatal to the run, leaving the rest PENDING. completed holds
// the instances that reached COMPLETED; success is false when any executed
// instance FAILED, even if the run was allowed to continue past it.
func (e *Engine) ExecuteSequence(ctx context.Context, seq []*domain.Instance) (completed []*domain.Instance, success bool) {
	success = true
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventRunStart, RunID: domain.RunIDFrom(ctx)},
			Scheduled: len(seq),
		})
	}

	for _, inst := range seq {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("run cancelled", "err", err)
			success = false
			break
		}

		proceed := e.Execute(ctx, inst)
		switch inst.Status {
		case domain.StatusCompleted:
			completed = append(completed, inst)
		case domain.StatusFailed:
			success = false
		}
		if !proceed {
			success = false
			break
		}
	}

	if e.hooks.OnRunFinish != nil {
		e.hooks.OnRunFinish(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventRunFinish, RunID: domain.RunIDFrom(ctx)},
			Scheduled: len(seq),
			Completed: len(completed),
			Success:   success,
		})
	}
	return completed, success
}
