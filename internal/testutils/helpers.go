package testutils

import (
	"time"
)

// FakeTimer implements ports.Timer by recording what the engine asked for.
// Tests fire it by calling the engine's Tick directly.
type FakeTimer struct {
	Armed   bool
	Last    time.Duration
	History []time.Duration
	Disarms int
}

// Arm records d as the pending deadline.
func (t *FakeTimer) Arm(d time.Duration) {
	t.Armed = true
	t.Last = d
	t.History = append(t.History, d)
}

// Disarm clears the pending deadline.
func (t *FakeTimer) Disarm() {
	t.Armed = false
	t.Disarms++
}

// Seconds returns the armed durations in seconds.
func (t *FakeTimer) Seconds() []float64 {
	out := make([]float64, len(t.History))
	for i, d := range t.History {
		out[i] = d.Seconds()
	}
	return out
}

// Ptr returns a pointer to v, for optional measurements.
func Ptr(v float64) *float64 {
	return &v
}
