package domain

import (
	"errors"
	"fmt"
)

// Parse errors. They are wrapped in a *ParseError carrying the record index.
var (
	ErrUnknownSegmentKind     = errors.New("unknown segment kind")
	ErrUnsupportedSegmentKind = errors.New("segment kind not supported by this device")
	ErrMissingDirection       = errors.New("missing or unknown direction")
	ErrNoBaselineMeasurement  = errors.New("no baseline measurement available")
	ErrInvalidStepPeriod      = errors.New("invalid step period")
	ErrMismatchedDualRamp     = errors.New("primary and secondary ramps do not align")
	ErrMalformedRecord        = errors.New("malformed record")
	ErrEmptyRecipe            = errors.New("recipe has no segments")
)

// ErrTooManySteps is returned when a recipe and its loops exceed the step cap.
var ErrTooManySteps = errors.New("recipe expands to too many steps")

// Validation errors. They are wrapped in a *ValidationError.
var (
	ErrValueOutOfBounds    = errors.New("value out of bounds")
	ErrPositionOutOfBounds = errors.New("position out of bounds")
)

// Runtime errors.
var (
	// ErrEngineBusy is returned when Start is called while a run is in progress.
	ErrEngineBusy = errors.New("engine busy")

	// ErrNotRunning is returned by Tick, Stop and Abort outside a run.
	ErrNotRunning = errors.New("engine not running")

	// ErrRecipeNotFound is returned by loaders for unknown recipe names.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrAxisNotFound is returned for unknown axis names.
	ErrAxisNotFound = errors.New("axis not found")

	// ErrRunNotFound is returned by run stores for unknown run IDs.
	ErrRunNotFound = errors.New("run not found")
)

// ParseError locates a parse failure inside a recipe.
type ParseError struct {
	Record int
	Token  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("record %d: %v: %q", e.Record, e.Err, e.Token)
	}
	return fmt.Sprintf("record %d: %v", e.Record, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Channel names a validated quantity.
type Channel string

const (
	ChannelPrimary   Channel = "primary"
	ChannelSecondary Channel = "secondary"
	ChannelPosition  Channel = "position"
)

// ValidationError reports the first compiled step that leaves its bounds.
type ValidationError struct {
	Err     error
	Channel Channel
	Step    int
	Value   float64
	Bounds  Bounds
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d: %s %v: %g not in %s", e.Step, e.Channel, e.Err, e.Value, e.Bounds)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DeviceError wraps a failure reported by the device sink mid-run.
type DeviceError struct {
	Step int
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error at step %d: %v", e.Step, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
