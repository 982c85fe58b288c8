package domain

import (
	"fmt"
	"time"

	"github.com/aretw0/bake/pkg/environment"
)

// Status is the lifecycle state of a task instance.
type Status string

const (
	StatusPending   Status = "PENDING"   // Not executed yet
	StatusRunning   Status = "RUNNING"   // Body is executing
	StatusCompleted Status = "COMPLETED" // Finished successfully, or short-circuited by dry-run
	StatusFailed    Status = "FAILED"
	StatusSkipped   Status = "SKIPPED" // Declined interactively
)

// IsTerminal reports whether no further transitions can occur from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCompleted || to == StatusFailed || to == StatusSkipped
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Instance is one runnable, parameter-bound occurrence of a Definition.
// Instances are compared by identity: two requests for the same task yield
// two distinct instances.
type Instance struct {
	Definition *Definition

	// Params holds explicit overrides. A plain name is a parameter of this
	// task; a dotted name is a configuration path overlaid as given, even
	// when it belongs to another task.
	Params map[string]any

	// Independent is true when the instance was synthesized to satisfy a
	// requirement rather than explicitly requested.
	Independent bool

	// Dependencies lists the instances that must run first, in discovery order.
	Dependencies []*Instance

	Status     Status
	StartedAt  time.Time
	FinishedAt time.Time

	// Environment is the resolved configuration used while executing.
	Environment *environment.Environment

	// Err records why the instance failed.
	Err error
}

// NewInstance creates a pending instance of def.
func NewInstance(def *Definition, params map[string]any, independent bool) *Instance {
	copied := make(map[string]any, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return &Instance{
		Definition:  def,
		Params:      copied,
		Independent: independent,
		Status:      StatusPending,
	}
}

// Name returns the short name of the instance's definition.
func (i *Instance) Name() string {
	return i.Definition.Name
}

// Duration returns how long the body ran, zero if it never started.
func (i *Instance) Duration() time.Duration {
	if i.StartedAt.IsZero() || i.FinishedAt.IsZero() {
		return 0
	}
	return i.FinishedAt.Sub(i.StartedAt)
}

// Overrides returns the explicit parameters keyed by fully-qualified path.
func (i *Instance) Overrides() map[string]any {
	out := make(map[string]any, len(i.Params))
	for k, v := range i.Params {
		out[i.Definition.QualifiedKey(k)] = v
	}
	return out
}

// Transition moves the instance to status to, rejecting moves out of a
// terminal state or skipping past RUNNING into a body outcome twice.
func (i *Instance) Transition(to Status) error {
	if !isAllowedTransition(i.Status, to) {
		return fmt.Errorf("%w for %q: %s -> %s", ErrInvalidTransition, i.Name(), i.Status, to)
	}
	i.Status = to
	return nil
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s[%s]", i.Name(), i.Status)
}
