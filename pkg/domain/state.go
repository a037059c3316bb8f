package domain

// RunStatus defines the current mode of the sequencer.
type RunStatus string

const (
	StatusIdle     RunStatus = "idle"     // Nothing started yet
	StatusRunning  RunStatus = "running"  // Waiting for the next tick
	StatusFinished RunStatus = "finished" // Every step was played
	StatusAborted  RunStatus = "aborted"  // Stopped before the last step
)

// AbortReason explains why a run left the running state early.
type AbortReason string

const (
	AbortStopped     AbortReason = "stopped"
	AbortDeviceError AbortReason = "device_error"
	AbortOperator    AbortReason = "operator"
)

// RunState represents the current snapshot of a sequencer.
type RunState struct {
	Status RunStatus `json:"status"`

	// StepIndex is the step being held while Running, and the last step
	// entered once Finished or Aborted.
	StepIndex int `json:"step_index"`

	// Reason is set when Status == StatusAborted.
	Reason AbortReason `json:"reason,omitempty"`

	// Err holds the device error that caused an abort, if any.
	Err error `json:"-"`
}

// Running reports whether the sequencer is waiting for a tick.
func (s RunState) Running() bool {
	return s.Status == StatusRunning
}

// Done reports whether the state is terminal.
func (s RunState) Done() bool {
	return s.Status == StatusFinished || s.Status == StatusAborted
}
