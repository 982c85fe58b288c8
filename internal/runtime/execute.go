package runtime

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/schema"
)

// Execute drives inst from PENDING to a terminal status and reports the
// outcome. It returns false when the run must stop: the instance failed and
// the run is not interactive, or the user declined to continue.
//
// Failures never escape as errors; they are recorded on inst.Err.
func (e *Engine) Execute(ctx context.Context, inst *domain.Instance) bool {
	console := e.runtime.Console
	mode := e.runtime.Mode

	if inst.Status != domain.StatusPending {
		console.Error(fmt.Sprintf("task %s was already executed (%s)", inst.Name(), inst.Status), "")
		return false
	}

	console.Push(inst.Name())
	defer console.Pop()

	log := e.logger.With("task", inst.Definition.Fullname)
	e.emitTask(ctx, domain.EventTaskStart, inst)

	env, err := ResolveEnvironment(e.env, inst)
	if err != nil {
		e.fail(inst, err)
	} else {
		inst.Environment = env
		switch {
		case mode.Interactive && !console.Check("execute task?", true):
			e.transition(inst, domain.StatusSkipped)
		case mode.DryRun && !inst.Definition.SupportsDryRun:
			log.Debug("dry run short-circuit")
			e.transition(inst, domain.StatusCompleted)
		default:
			e.runBody(ctx, inst)
		}
	}

	log.Debug("task finished", "status", inst.Status, "duration", inst.Duration())
	e.emitTask(ctx, domain.EventTaskFinish, inst)
	return e.report(inst)
}

func (e *Engine) runBody(ctx context.Context, inst *domain.Instance) {
	e.transition(inst, domain.StatusRunning)
	inst.StartedAt = e.now()
	err := e.invoke(ctx, inst)
	inst.FinishedAt = e.now()

	if err != nil {
		e.fail(inst, err)
		return
	}
	e.transition(inst, domain.StatusCompleted)
}

// invoke runs prepare, body and finalize, bounded by the definition's timeout.
// On expiry the body is abandoned and its context cancelled, which kills any
// process it started through the work runner.
func (e *Engine) invoke(ctx context.Context, inst *domain.Instance) error {
	timeout := inst.Definition.Timeout
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- e.call(runCtx, inst)
	}()

	var err error
	select {
	case err = <-done:
	case <-runCtx.Done():
	}

	if timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", domain.ErrTimeout, timeout)
	}
	if err == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (e *Engine) call(ctx context.Context, inst *domain.Instance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.UnhandledTaskError{
				Task:  inst.Name(),
				Err:   fmt.Errorf("panic: %v", r),
				Stack: string(debug.Stack()),
			}
		}
	}()

	def := inst.Definition
	tc := domain.NewContext(ctx, inst, e.runtime, inst.Environment)
	for _, step := range []domain.Body{def.Prepare, def.Run, def.Finalize} {
		if step == nil {
			continue
		}
		// Once the deadline passes the instance is already failed.
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(tc); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) fail(inst *domain.Instance, err error) {
	if !isDeclared(err) {
		var unhandled *domain.UnhandledTaskError
		if !errors.As(err, &unhandled) {
			err = &domain.UnhandledTaskError{Task: inst.Name(), Err: err, Stack: dump(err)}
		}
	}
	inst.Err = err
	e.transition(inst, domain.StatusFailed)

	var unhandled *domain.UnhandledTaskError
	if errors.As(err, &unhandled) {
		e.runtime.Console.Error(unhandled.Error(), unhandled.Stack)
		return
	}
	e.runtime.Console.Error(err.Error(), "")
}

func (e *Engine) transition(inst *domain.Instance, to domain.Status) {
	if err := inst.Transition(to); err != nil {
		e.logger.Error("illegal transition", "task", inst.Name(), "err", err)
	}
}

// report prints the terminal status and decides whether the run continues.
func (e *Engine) report(inst *domain.Instance) bool {
	console := e.runtime.Console
	mode := e.runtime.Mode

	duration := ""
	if mode.Timing && !inst.StartedAt.IsZero() {
		duration = fmt.Sprintf(" (%.03fs)", inst.Duration().Seconds())
	}

	switch inst.Status {
	case domain.StatusCompleted:
		console.Report("[!G]task completed[!]" + duration)
		return true
	case domain.StatusSkipped:
		console.Report("[!Y]task skipped[!]")
		return true
	}

	if mode.Interactive {
		return console.Check("[!R]task failed[!]"+duration+"; continue?", false)
	}
	console.Report("[!R]task failed[!]" + duration)
	return false
}

func (e *Engine) emitTask(ctx context.Context, typ domain.EventType, inst *domain.Instance) {
	hook := e.hooks.OnTaskStart
	if typ == domain.EventTaskFinish {
		hook = e.hooks.OnTaskFinish
	}
	if hook == nil {
		return
	}
	ev := &domain.TaskEvent{
		EventBase:   domain.EventBase{Timestamp: e.now(), Type: typ, RunID: domain.RunIDFrom(ctx)},
		Task:        inst.Name(),
		Fullname:    inst.Definition.Fullname,
		Independent: inst.Independent,
		Status:      inst.Status,
		Duration:    inst.Duration(),
	}
	if inst.Err != nil {
		ev.Error = inst.Err.Error()
	}
	hook(ctx, ev)
}

// isDeclared reports whether err is an expected failure whose message
// stands on its own.
func isDeclared(err error) bool {
	var (
		taskErr    *domain.TaskError
		missing    *domain.MissingParameterError
		validation *schema.ValidationError
	)
	return errors.As(err, &taskErr) ||
		errors.As(err, &missing) ||
		errors.As(err, &validation) ||
		errors.Is(err, domain.ErrTimeout) ||
		errors.Is(err, context.Canceled)
}

// dump renders the wrap chain of err, one level per line.
func dump(err error) string {
	var b strings.Builder
	for depth := 0; err != nil; depth++ {
		fmt.Fprintf(&b, "%s%T: %v\n", strings.Repeat("  ", depth), err, err)
		err = errors.Unwrap(err)
	}
	return b.String()
}
