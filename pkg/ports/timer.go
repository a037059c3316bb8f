package ports

import "time"

// Timer is the single suspension point of a sequencer.
// Arm replaces any pending deadline; the host calls the engine's Tick when it fires.
type Timer interface {
	Arm(d time.Duration)
	Disarm()
}
