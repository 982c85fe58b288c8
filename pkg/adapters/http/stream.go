package http

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aretw0/bake/pkg/domain"
)

// StreamManager fans lifecycle events out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
	}
}

// Subscribe registers a new listener. The returned function unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast sends msg to every subscriber. Slow subscribers with a full
// buffer miss the message.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart:   func(_ context.Context, e *domain.RunEvent) { sm.publish(e) },
		OnRunFinish:  func(_ context.Context, e *domain.RunEvent) { sm.publish(e) },
		OnTaskStart:  func(_ context.Context, e *domain.TaskEvent) { sm.publish(e) },
		OnTaskFinish: func(_ context.Context, e *domain.TaskEvent) { sm.publish(e) },
	}
}

func (sm *StreamManager) publish(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	sm.Broadcast(string(data))
}
