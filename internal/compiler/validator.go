package compiler

import (
	"github.com/aretw0/setpoint/pkg/domain"
)

// secondsPerMinute converts per-minute actuator rates to per-second displacement.
const secondsPerMinute = 60.0

// Limits is the bound snapshot a compile validates against.
type Limits struct {
	Value     domain.Bounds
	Secondary domain.Bounds
	Position  domain.Bounds

	// TrackPosition enables the cumulative position check starting at StartPosition.
	TrackPosition bool
	StartPosition float64
}

// Validate checks every step against the limits and returns the first violation.
// Value and secondary bounds are checked before the position of the same step.
func Validate(steps []domain.CompiledStep, limits Limits) error {
	pos := limits.StartPosition
	for i, step := range steps {
		if !limits.Value.Contains(step.Value) {
			return &domain.ValidationError{
				Err:     domain.ErrValueOutOfBounds,
				Channel: domain.ChannelPrimary,
				Step:    i,
				Value:   step.Value,
				Bounds:  limits.Value,
			}
		}
		if step.Secondary != nil && !limits.Secondary.Contains(*step.Secondary) {
			return &domain.ValidationError{
				Err:     domain.ErrValueOutOfBounds,
				Channel: domain.ChannelSecondary,
				Step:    i,
				Value:   *step.Secondary,
				Bounds:  limits.Secondary,
			}
		}
		if !limits.TrackPosition {
			continue
		}
		pos += Displacement(step)
		if !limits.Position.Contains(pos) {
			return positionError(i, pos, limits.Position)
		}
	}
	return nil
}

// ValidateLoops extends the position check over every repetition of steps.
// Each cycle shifts every position by the same net displacement, so only the
// per-cycle extremes need checking. The reported step index is the index in
// the replicated list.
func ValidateLoops(steps []domain.CompiledStep, loops uint32, limits Limits) error {
	if !limits.TrackPosition || loops == 0 || len(steps) == 0 {
		return nil
	}

	prefix := make([]float64, len(steps))
	var net, lo, hi float64
	for i, step := range steps {
		net += Displacement(step)
		prefix[i] = net
		if i == 0 || net < lo {
			lo = net
		}
		if i == 0 || net > hi {
			hi = net
		}
	}
	if net == 0 {
		return nil
	}

	for k := 1; k <= int(loops); k++ {
		base := limits.StartPosition + float64(k)*net
		if limits.Position.Contains(base+lo) && limits.Position.Contains(base+hi) {
			continue
		}
		for i, p := range prefix {
			if !limits.Position.Contains(base + p) {
				return positionError(k*len(steps)+i, base+p, limits.Position)
			}
		}
	}
	return nil
}

// Displacement is the position change a step causes on a linear actuator.
// Step values are rates per minute; direction-only steps take their sign
// from the direction flag.
func Displacement(step domain.CompiledStep) float64 {
	rate := step.Value
	if step.Direction != nil {
		rate = step.Direction.Sign() * step.Value
	}
	return rate / secondsPerMinute * step.Duration.Seconds()
}

func positionError(step int, pos float64, b domain.Bounds) error {
	return &domain.ValidationError{
		Err:     domain.ErrPositionOutOfBounds,
		Channel: domain.ChannelPosition,
		Step:    step,
		Value:   pos,
		Bounds:  b,
	}
}
