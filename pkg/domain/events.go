package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunFinish  EventType = "run_finish"
	EventTaskStart  EventType = "task_start"
	EventTaskFinish EventType = "task_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// TaskEvent represents a task instance entering or leaving execution.
type TaskEvent struct {
	EventBase
	Task        string        `json:"task"`
	Fullname    string        `json:"fullname"`
	Independent bool          `json:"independent,omitempty"`
	Status      Status        `json:"status"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RunEvent represents the start or end of a scheduled sequence.
type RunEvent struct {
	EventBase
	Scheduled int  `json:"scheduled"`
	Completed int  `json:"completed"`
	Success   bool `json:"success"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunFinish  func(context.Context, *RunEvent)
	OnTaskStart  func(context.Context, *TaskEvent)
	OnTaskFinish func(context.Context, *TaskEvent)
}

// Chain returns hooks that call h first and then next for every event.
func (h LifecycleHooks) Chain(next LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart:   chain(h.OnRunStart, next.OnRunStart),
		OnRunFinish:  chain(h.OnRunFinish, next.OnRunFinish),
		OnTaskStart:  chain(h.OnTaskStart, next.OnTaskStart),
		OnTaskFinish: chain(h.OnTaskFinish, next.OnTaskFinish),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

type runIDKey struct{}

// WithRunID tags ctx with the ID of the run it drives. Events emitted under
// ctx carry it.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the run ID carried by ctx, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
