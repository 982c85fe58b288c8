package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/aretw0/bake/internal/logging"
	"github.com/aretw0/bake/pkg/domain"
)

// DefaultGracePeriod is how long an interrupted process may take to exit
// before it is killed.
const DefaultGracePeriod = 5 * time.Second

// Command describes one external process run.
type Command struct {
	// Line is handed to the shell as a single argument.
	Line string
	// Env holds extra KEY=VALUE entries appended to the runner's environment.
	Env []string
	// Dir overrides the runner's working directory.
	Dir string
	// Timeout bounds the run; zero means no limit beyond the context.
	Timeout time.Duration
	// Capture collects stdout into Result.Stdout instead of streaming it.
	Capture bool
	// MergeOutput sends stderr wherever stdout goes.
	MergeOutput bool
	// Stdin is written to the process's standard input.
	Stdin string
}

// Result is the outcome of a Command that started.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes command lines through the system shell.
// It implements domain.WorkRunner.
type Runner struct {
	shell   []string
	baseDir string
	env     []string
	stdout  io.Writer
	stderr  io.Writer
	grace   time.Duration
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv appends KEY=VALUE entries to every process environment.
func WithEnv(env ...string) RunnerOption {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// WithOutput sets where streamed stdout and stderr go.
func WithOutput(stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithShell replaces the shell invocation, e.g. "bash", "-c".
func WithShell(shell ...string) RunnerOption {
	return func(r *Runner) {
		if len(shell) > 0 {
			r.shell = shell
		}
	}
}

// WithGracePeriod sets how long an interrupted process may take to exit.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		shell:  defaultShell(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		grace:  DefaultGracePeriod,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"sh", "-c"}
}

// RunWork runs cmdline and returns its exit code. A non-zero exit is not an
// error; failing to start, a timeout or cancellation is.
func (r *Runner) RunWork(ctx context.Context, cmdline string, timeout time.Duration) (int, error) {
	res, err := r.Run(ctx, Command{Line: cmdline, Timeout: timeout})
	if err != nil {
		return -1, err
	}
	return res.ExitCode, nil
}

// Run executes cmd. When the timeout expires or ctx is cancelled the shell
// and every process it started are interrupted, then killed once the shell
// exits or the grace period ends.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	if strings.TrimSpace(cmd.Line) == "" {
		return Result{}, errors.New("empty command line")
	}

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), r.shell[1:]...), cmd.Line)
	proc := exec.CommandContext(runCtx, r.shell[0], args...)
	proc.Dir = r.baseDir
	if cmd.Dir != "" {
		proc.Dir = cmd.Dir
	}
	proc.Env = append(append(proc.Environ(), r.env...), cmd.Env...)
	setProcessGroup(proc)
	interrupted := false
	proc.Cancel = func() error {
		interrupted = true
		return interruptGroup(proc.Process)
	}
	proc.WaitDelay = r.grace

	var stdout, stderr bytes.Buffer
	proc.Stdout = r.stdout
	if cmd.Capture {
		proc.Stdout = &stdout
	}
	proc.Stderr = io.MultiWriter(&stderr, orDiscard(r.stderr))
	if cmd.MergeOutput {
		proc.Stderr = proc.Stdout
	}
	if cmd.Stdin != "" {
		proc.Stdin = strings.NewReader(cmd.Stdin)
	}

	r.logger.Debug("running command", "cmd", cmd.Line, "dir", proc.Dir, "timeout", cmd.Timeout)
	start := time.Now()
	err := proc.Run()
	if interrupted {
		// The shell is gone; reap whatever it left behind in its group.
		if kerr := killGroup(proc.Process); kerr != nil {
			r.logger.Warn("failed to kill process group", "cmd", cmd.Line, "err", kerr)
		}
	}
	res := Result{
		ExitCode: proc.ProcessState.ExitCode(),
		Stdout:   strings.TrimRight(stdout.String(), "\n"),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case cmd.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		r.logger.Warn("command timed out", "cmd", cmd.Line, "timeout", cmd.Timeout)
		return res, fmt.Errorf("%w after %s: %s", domain.ErrTimeout, cmd.Timeout, cmd.Line)
	case ctx.Err() != nil:
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, fmt.Errorf("failed to run %q: %w", cmd.Line, err)
	}
	r.logger.Debug("command finished", "cmd", cmd.Line, "exit", res.ExitCode, "duration", res.Duration)
	return res, nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
