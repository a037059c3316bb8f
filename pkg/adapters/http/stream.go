package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/pkg/domain"
)

// Message is one server-sent event.
type Message struct {
	Type domain.EventType
	Data []byte
}

// StreamManager fans engine events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Message]struct{} // axis ("" = every axis) -> channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan Message]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a listener for axis, or for every axis when axis is empty.
func (sm *StreamManager) Subscribe(axis string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 32)
	if _, ok := sm.subscribers[axis]; !ok {
		sm.subscribers[axis] = make(map[chan Message]struct{})
	}
	sm.subscribers[axis][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[axis]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(sm.subscribers, axis)
			}
		}
	}
}

// Broadcast sends msg to the subscribers of axis and of every axis.
// Slow subscribers lose messages rather than block the engine.
func (sm *StreamManager) Broadcast(axis string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{axis, ""} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", "axis", axis)
			}
		}
		if axis == "" {
			break
		}
	}
}

// Hooks returns lifecycle hooks that publish every event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publishRun := func(_ context.Context, e *domain.RunEvent) {
		payload := struct {
			*domain.RunEvent
			Error string `json:"error,omitempty"`
		}{RunEvent: e}
		if e.Err != nil {
			payload.Error = e.Err.Error()
		}
		sm.publish(e.Axis, e.Type, payload)
	}
	return domain.LifecycleHooks{
		OnRunStart: publishRun,
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			sm.publish(e.Axis, e.Type, e)
		},
		OnRunFinish: publishRun,
		OnRunAbort:  publishRun,
	}
}

func (sm *StreamManager) publish(axis string, t domain.EventType, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "err", err)
		return
	}
	sm.Broadcast(axis, Message{Type: t, Data: data})
}
