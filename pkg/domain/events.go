package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart  EventType = "run_start"
	EventStep      EventType = "step"
	EventRunFinish EventType = "run_finish"
	EventRunAbort  EventType = "run_abort"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Axis      string    `json:"axis"`
	RunID     string    `json:"run_id"`
}

// RunEvent describes a run starting, finishing or aborting.
type RunEvent struct {
	EventBase
	Recipe string      `json:"recipe"`
	Steps  int         `json:"steps"`
	Reason AbortReason `json:"reason,omitempty"`
	Err    error       `json:"-"`
}

// StepEvent describes the sequencer entering a step, before its command is sent.
type StepEvent struct {
	EventBase
	Index int          `json:"index"`
	Step  CompiledStep `json:"step"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the engine's goroutine.
type LifecycleHooks struct {
	OnRunStart  func(context.Context, *RunEvent)
	OnStep      func(context.Context, *StepEvent)
	OnRunFinish func(context.Context, *RunEvent)
	OnRunAbort  func(context.Context, *RunEvent)
}

// Merge returns hooks that call h first, then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart:  chainRun(h.OnRunStart, other.OnRunStart),
		OnStep:      chainStep(h.OnStep, other.OnStep),
		OnRunFinish: chainRun(h.OnRunFinish, other.OnRunFinish),
		OnRunAbort:  chainRun(h.OnRunAbort, other.OnRunAbort),
	}
}

func chainRun(a, b func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainStep(a, b func(context.Context, *StepEvent)) func(context.Context, *StepEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
