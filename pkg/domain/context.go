package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/bake/pkg/environment"
)

// Mode carries the run-wide flags consumed by the state machine.
type Mode struct {
	DryRun      bool
	Interactive bool
	Timing      bool
	Verbose     bool
	Debug       bool
}

// Console is the user-facing message sink of a run.
type Console interface {
	// Report prints a status message unless the console is quiet.
	Report(message string)
	// Info prints a message only in verbose or debug mode.
	Info(message string)
	// Error prints a failure message; detail, when non-empty, is a diagnostic dump.
	Error(message string, detail string)
	// Check asks a yes/no question and returns the answer.
	Check(prompt string, defaultYes bool) bool
	// Push and Pop maintain the task-name prefix of messages.
	Push(name string)
	Pop()
}

// WorkRunner runs an external command line and returns its exit code.
type WorkRunner interface {
	RunWork(ctx context.Context, cmdline string, timeout time.Duration) (int, error)
}

// Runtime groups the collaborators a task body can reach.
type Runtime struct {
	Mode    Mode
	Console Console
	Work    WorkRunner
	Logger  *slog.Logger
}

// Context is passed to every task body and hook.
type Context struct {
	ctx context.Context

	Instance    *Instance
	Runtime     *Runtime
	Environment *environment.Environment
}

// NewContext binds an instance to the runtime and its resolved environment.
func NewContext(ctx context.Context, inst *Instance, rt *Runtime, env *environment.Environment) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{ctx: ctx, Instance: inst, Runtime: rt, Environment: env}
}

// Context returns the cancellation context of the execution. It is done when
// the task's timeout expires.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Get reads a parameter of the running task. Local names are prefixed with
// the task name; fully-qualified paths are read as is.
func (c *Context) Get(name string) any {
	return c.Environment.Get(c.Instance.Definition.QualifiedKey(name))
}

// Set writes a parameter of the running task into its private environment.
func (c *Context) Set(name string, value any) {
	c.Environment.Set(c.Instance.Definition.QualifiedKey(name), value)
}

// String returns a text parameter, or "" when it is absent or not text.
func (c *Context) String(name string) string {
	s, _ := c.Get(name).(string)
	return s
}

// Report forwards a status message to the console.
func (c *Context) Report(message string) {
	if c.Runtime != nil && c.Runtime.Console != nil {
		c.Runtime.Console.Report(message)
	}
}

// Info forwards a verbose message to the console.
func (c *Context) Info(message string) {
	if c.Runtime != nil && c.Runtime.Console != nil {
		c.Runtime.Console.Info(message)
	}
}

// Shell runs cmdline through the runtime's work runner. A non-zero exit code
// is returned as a *TaskError wrapping *ProcessFailedError.
func (c *Context) Shell(cmdline string, timeout time.Duration) error {
	if c.Runtime == nil || c.Runtime.Work == nil {
		return Failf("no work runner configured")
	}
	code, err := c.Runtime.Work.RunWork(c.ctx, cmdline, timeout)
	if err != nil {
		return err
	}
	if code != 0 {
		return Failf("%w", &ProcessFailedError{Cmdline: cmdline, ExitCode: code})
	}
	return nil
}
