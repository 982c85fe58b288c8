package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateTask is returned when a fullname is registered twice.
var ErrDuplicateTask = errors.New("duplicate task")

// ErrInvalidTransition is returned when an instance is moved along a disallowed edge.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrTimeout is returned when a task body outlives its timeout.
var ErrTimeout = errors.New("task timed out")

// ErrRunNotFound is returned when a run ID cannot be found in the history store.
var ErrRunNotFound = errors.New("run not found")

// UnknownTaskError reports a name that resolves to no definition.
type UnknownTaskError struct {
	Name string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task %q", e.Name)
}

// AmbiguousTaskError reports a short name shared by several definitions.
type AmbiguousTaskError struct {
	Name       string
	Candidates []string // fullnames, sorted
}

func (e *AmbiguousTaskError) Error() string {
	return fmt.Sprintf("task name %q is ambiguous: %s", e.Name, strings.Join(e.Candidates, ", "))
}

// MissingParameterError reports a required parameter with no value.
type MissingParameterError struct {
	Key string // fully-qualified, e.g. "deploy.target"
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("task requires parameter %q", e.Key)
}

// TaskError is a failure a task body declares on purpose. It is reported
// without a diagnostic dump.
type TaskError struct {
	Message string
	Err     error
}

func (e *TaskError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Failf builds a *TaskError from a format string. A %w verb keeps the
// wrapped error reachable through errors.Is and errors.As.
func Failf(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	return &TaskError{Message: err.Error(), Err: errors.Unwrap(err)}
}

// ProcessFailedError reports an external command that exited non-zero.
type ProcessFailedError struct {
	Cmdline  string
	ExitCode int
}

func (e *ProcessFailedError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Cmdline, e.ExitCode)
}

// UnhandledTaskError wraps an unexpected failure raised by a task body,
// including recovered panics. Stack holds the diagnostic dump.
type UnhandledTaskError struct {
	Task  string
	Err   error
	Stack string
}

func (e *UnhandledTaskError) Error() string {
	return fmt.Sprintf("task %s raised uncaught error: %v", e.Task, e.Err)
}

func (e *UnhandledTaskError) Unwrap() error {
	return e.Err
}

// CycleKind distinguishes the two ways a graph can fail to order.
type CycleKind string

const (
	CycleKindCycle    CycleKind = "cycle"
	CycleKindDangling CycleKind = "dangling"
)

// CycleError reports a dependency graph that cannot be fully ordered.
type CycleError struct {
	Kind CycleKind
	// Path is the cycle witness (first node repeated at the end) or the
	// dangling edge as [dependent, missing].
	Path []string
}

func (e *CycleError) Error() string {
	switch e.Kind {
	case CycleKindDangling:
		return fmt.Sprintf("dangling dependency: %s", strings.Join(e.Path, " -> "))
	default:
		return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
	}
}
