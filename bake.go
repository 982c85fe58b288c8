package bake

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/bake/internal/compiler"
	"github.com/aretw0/bake/internal/logging"
	"github.com/aretw0/bake/internal/runtime"
	"github.com/aretw0/bake/internal/validator"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/environment"
	"github.com/aretw0/bake/pkg/ports"
	"github.com/aretw0/bake/pkg/registry"
)

// DefaultLockTTL bounds how long a distributed run lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Minute

// Engine is the high-level entry point of the bake library.
// It owns a task registry and the ambient configuration, and wraps the
// internal runtime with run bookkeeping: locking, reports and history.
type Engine struct {
	registry *registry.Registry
	env      *environment.Environment
	runtime  *runtime.Engine
	history  ports.HistoryStore
	locker   ports.RunLocker
	lockTTL  time.Duration

	prefix  string
	mode    domain.Mode
	console domain.Console
	work    domain.WorkRunner
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time

	// mu serializes runs of this engine.
	mu sync.Mutex
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry uses an existing registry instead of a fresh one.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithEnvironment sets the ambient configuration shared by every run.
func WithEnvironment(env *environment.Environment) Option {
	return func(e *Engine) {
		if env != nil {
			e.env = env
		}
	}
}

// WithPrefix sets the prefix tried first when resolving short task names.
func WithPrefix(prefix string) Option {
	return func(e *Engine) { e.prefix = prefix }
}

// WithMode sets the run flags.
func WithMode(mode domain.Mode) Option {
	return func(e *Engine) { e.mode = mode }
}

// WithConsole sets the user-facing message sink.
func WithConsole(c domain.Console) Option {
	return func(e *Engine) { e.console = c }
}

// WithWorkRunner sets the process runner used by shell task bodies.
func WithWorkRunner(w domain.WorkRunner) Option {
	return func(e *Engine) { e.work = w }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Chain(hooks)
	}
}

// WithHistory saves the report of every run to store.
func WithHistory(store ports.HistoryStore) Option {
	return func(e *Engine) { e.history = store }
}

// WithLocker serializes runs across every engine sharing the locker.
func WithLocker(l ports.RunLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source of reports and timing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine. Without options it has an empty registry and
// environment, discards console output and accepts every prompt's default.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: registry.NewRegistry(),
		env:      environment.New(),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	runtimeOpts := []runtime.Option{
		runtime.WithPrefix(e.prefix),
		runtime.WithEnvironment(e.env),
		runtime.WithMode(e.mode),
		runtime.WithHooks(e.hooks),
		runtime.WithLogger(e.logger),
		runtime.WithClock(e.now),
	}
	if e.console != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithConsole(e.console))
	}
	if e.work != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithWorkRunner(e.work))
	}
	e.runtime = runtime.NewEngine(e.registry, runtimeOpts...)
	return e
}

// Register adds a definition to the registry. Registration errors are
// programming errors: callers declaring tasks in code usually want
// MustRegister.
func (e *Engine) Register(def *domain.Definition) (*domain.Definition, error) {
	stored, err := e.registry.Register(def)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("task registered", "task", stored.Fullname)
	return stored, nil
}

// MustRegister is like Register but panics on error.
func (e *Engine) MustRegister(def *domain.Definition) *domain.Definition {
	stored, err := e.Register(def)
	if err != nil {
		panic(err)
	}
	return stored
}

// LoadBakefile parses the bakefile at path, merges its environment section
// into the ambient configuration and registers its tasks.
func (e *Engine) LoadBakefile(path string) ([]*domain.Definition, error) {
	bf, err := compiler.NewParser().ParseFile(path)
	if err != nil {
		return nil, err
	}
	e.env.MergeMap(bf.Environment)
	defs, err := compiler.Load(e.registry, bf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.logger.Debug("bakefile loaded", "path", path, "source", bf.Source, "tasks", len(defs))
	return defs, nil
}

// Resolve finds the definition called name, trying the engine's prefix first.
func (e *Engine) Resolve(name string) (*domain.Definition, error) {
	return e.runtime.Lookup(name)
}

// Tasks returns every registered definition, sorted by fullname.
func (e *Engine) Tasks() []*domain.Definition {
	return e.registry.Definitions()
}

// Registry exposes the task registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Environment returns the ambient configuration.
func (e *Engine) Environment() *environment.Environment {
	return e.env
}

// Mode returns the run flags.
func (e *Engine) Mode() domain.Mode {
	return e.mode
}

// History returns the configured history store, or nil.
func (e *Engine) History() ports.HistoryStore {
	return e.history
}

// Validate checks that every requirement resolves and that requirements do
// not loop.
func (e *Engine) Validate() error {
	return validator.ValidateRegistry(e.registry, e.prefix)
}

// Instances resolves each request into a fresh instance, in request order.
func (e *Engine) Instances(reqs []domain.Request) ([]*domain.Instance, error) {
	out := make([]*domain.Instance, 0, len(reqs))
	for _, req := range reqs {
		def, err := e.Resolve(req.Task)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.NewInstance(def, req.Params, false))
	}
	return out, nil
}

// BuildSchedule expands the requested instances with their requirements and
// returns them in execution order.
func (e *Engine) BuildSchedule(requested []*domain.Instance) ([]*domain.Instance, error) {
	return e.runtime.BuildSchedule(requested)
}

// ExecuteSequence runs seq one instance at a time. See runtime.Engine.
func (e *Engine) ExecuteSequence(ctx context.Context, seq []*domain.Instance) ([]*domain.Instance, bool) {
	return e.runtime.ExecuteSequence(ctx, seq)
}

// Plan resolves reqs and builds their schedule without executing anything.
func (e *Engine) Plan(reqs []domain.Request) ([]*domain.Instance, error) {
	requested, err := e.Instances(reqs)
	if err != nil {
		return nil, err
	}
	return e.BuildSchedule(requested)
}

// Run resolves, schedules and executes reqs, then saves the report to the
// history store. Resolution and scheduling errors are returned before
// anything executes; task failures are recorded in the report instead.
func (e *Engine) Run(ctx context.Context, reqs []domain.Request) (*domain.RunReport, error) {
	seq, err := e.Plan(reqs)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, "run", e.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("failed to release run lock", "err", err)
			}
		}()
	}

	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Task
	}
	report := domain.NewRunReport(names, e.mode.DryRun, e.now())
	log := e.logger.With("run_id", report.ID)
	log.Info("run started", "requested", names, "scheduled", len(seq))

	_, success := e.runtime.ExecuteSequence(domain.WithRunID(ctx, report.ID), seq)
	report.Finish(seq, success, e.now())
	log.Info("run finished", "success", success, "completed", report.Count(domain.StatusCompleted))

	if e.history != nil {
		if err := e.history.Save(context.WithoutCancel(ctx), report); err != nil {
			log.Error("failed to save run report", "err", err)
			return report, fmt.Errorf("failed to save run report: %w", err)
		}
	}
	return report, nil
}
