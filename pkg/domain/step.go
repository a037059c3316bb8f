package domain

import (
	"fmt"
	"strings"
	"time"
)

// Direction is the motion flag of magnitude-plus-direction actuators.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// ParseDirection accepts UP or DOWN in any case.
func ParseDirection(token string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case string(DirectionUp):
		return DirectionUp, true
	case string(DirectionDown):
		return DirectionDown, true
	}
	return "", false
}

// Sign returns +1 for Up and -1 for Down.
func (d Direction) Sign() float64 {
	if d == DirectionDown {
		return -1
	}
	return 1
}

// StepKind tells how a compiled step must be sent and drawn.
type StepKind string

const (
	StepHold       StepKind = "hold"        // Plain setpoint held for Duration
	StepBaseline   StepKind = "baseline"    // Synthesized jump to the measured value
	StepNativeRamp StepKind = "native_ramp" // Device-driven ramp from From to Value
)

// CompiledStep is one fully expanded, bounds-checked instruction.
type CompiledStep struct {
	Kind      StepKind      `json:"kind"`
	Value     float64       `json:"value"`
	Duration  time.Duration `json:"duration"`
	Direction *Direction    `json:"direction,omitempty"`
	Secondary *float64      `json:"secondary,omitempty"`

	// From is the value the step starts at. Only native ramps draw from it.
	From float64 `json:"from"`

	// Slope is the native ramp rate in units per second.
	Slope float64 `json:"slope,omitempty"`
}

func (s CompiledStep) String() string {
	out := fmt.Sprintf("%s %.3f for %s", s.Kind, s.Value, s.Duration)
	if s.Direction != nil {
		out += " " + string(*s.Direction)
	}
	if s.Secondary != nil {
		out += fmt.Sprintf(" (secondary %.3f)", *s.Secondary)
	}
	return out
}

// TotalDuration sums the durations of steps.
func TotalDuration(steps []CompiledStep) time.Duration {
	var total time.Duration
	for _, s := range steps {
		total += s.Duration
	}
	return total
}

// CommandKind identifies what a device must do with a Command.
type CommandKind string

const (
	CommandSetpoint        CommandKind = "setpoint"
	CommandNativeRampStart CommandKind = "native_ramp_start"
	CommandNativeRampReset CommandKind = "native_ramp_reset"
	CommandFinish          CommandKind = "finish"
)

// Command is pushed through a DeviceSink for every step the engine enters.
type Command struct {
	Axis      string      `json:"axis"`
	Kind      CommandKind `json:"kind"`
	Step      int         `json:"step"`
	Value     float64     `json:"value"`
	Direction *Direction  `json:"direction,omitempty"`
	Secondary *float64    `json:"secondary,omitempty"`
	Slope     float64     `json:"slope,omitempty"`
}

// CommandFor builds the command that starts step index i.
func CommandFor(axis string, i int, step CompiledStep) Command {
	kind := CommandSetpoint
	if step.Kind == StepNativeRamp {
		kind = CommandNativeRampStart
	}
	return Command{
		Axis:      axis,
		Kind:      kind,
		Step:      i,
		Value:     step.Value,
		Direction: step.Direction,
		Secondary: step.Secondary,
		Slope:     step.Slope,
	}
}
