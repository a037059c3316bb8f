package domain

import "time"

// SegmentKind discriminates the variants of a Segment.
type SegmentKind string

const (
	KindJump       SegmentKind = "s"   // Step straight to a value
	KindRamp       SegmentKind = "r"   // Linear ramp interpolated by the engine
	KindNativeRamp SegmentKind = "er"  // Linear ramp performed by the device
	KindPowerJump  SegmentKind = "op"  // Primary jump plus a secondary-channel value
	KindPowerRamp  SegmentKind = "opr" // Secondary-channel ramp
)

// Segment is one authored entry of a recipe, before time expansion.
// Only the fields relevant to Kind are meaningful.
type Segment struct {
	Kind     SegmentKind
	Record   int // zero-based line index in the recipe
	Value    float64
	Duration time.Duration

	// StepPeriod is the micro-step cadence of Ramp and PowerRamp.
	StepPeriod time.Duration

	// Direction is set on Jump and Ramp in direction-only mode.
	Direction *Direction

	// Aux is the secondary value of a PowerJump. HoldAux replaces it with
	// "keep the current secondary value".
	Aux     float64
	HoldAux bool

	// AuxStart overrides the starting secondary value of a PowerRamp.
	AuxStart *float64

	// Synthetic marks the zero-duration baseline jump inserted before a
	// leading ramp.
	Synthetic bool
}

// IsRamp reports whether the segment needs a defined starting value.
func (s Segment) IsRamp() bool {
	return s.Kind == KindRamp || s.Kind == KindNativeRamp
}
