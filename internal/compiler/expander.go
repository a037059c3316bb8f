package compiler

import (
	"math"
	"time"

	"github.com/aretw0/setpoint/pkg/domain"
)

// roundDecimals is the precision of interpolated ramp values.
const roundDecimals = 3

// Measurements are the live device readings captured once per compile.
type Measurements struct {
	Value     *float64
	Position  *float64
	Secondary *float64
}

// rampSpan remembers where the most recent primary ramp landed in the step
// list, so a following power ramp can be overlaid on it.
type rampSpan struct {
	record   int
	start    int
	count    int
	period   time.Duration
	duration time.Duration
}

type expander struct {
	m        Measurements
	steps    []domain.CompiledStep
	prev     *float64
	prevSec  *float64
	lastRamp *rampSpan
}

// Expand turns parsed segments into compiled steps. Ramps become dense
// micro-steps, every other kind becomes a single step.
func Expand(segments []domain.Segment, m Measurements) ([]domain.CompiledStep, error) {
	e := &expander{
		m:       m,
		steps:   make([]domain.CompiledStep, 0, len(segments)),
		prevSec: m.Secondary,
	}
	for i, seg := range segments {
		var err error
		switch seg.Kind {
		case domain.KindJump:
			e.jump(seg)
		case domain.KindRamp:
			err = e.ramp(seg)
		case domain.KindNativeRamp:
			err = e.nativeRamp(seg)
		case domain.KindPowerJump:
			e.powerJump(seg)
		case domain.KindPowerRamp:
			err = e.powerRamp(seg, i > 0 && segments[i-1].Kind == domain.KindRamp)
		default:
			err = &domain.ParseError{Record: seg.Record, Token: string(seg.Kind), Err: domain.ErrUnknownSegmentKind}
		}
		if err != nil {
			return nil, err
		}
		if seg.Kind != domain.KindRamp {
			e.lastRamp = nil
		}
	}
	return e.steps, nil
}

func (e *expander) emit(step domain.CompiledStep) {
	e.steps = append(e.steps, step)
	v := step.Value
	e.prev = &v
	if step.Secondary != nil {
		s := *step.Secondary
		e.prevSec = &s
	}
}

func (e *expander) start(seg domain.Segment) (float64, error) {
	if e.prev != nil {
		return *e.prev, nil
	}
	if e.m.Value != nil {
		return *e.m.Value, nil
	}
	return 0, &domain.ParseError{Record: seg.Record, Err: domain.ErrNoBaselineMeasurement}
}

func (e *expander) jump(seg domain.Segment) {
	kind := domain.StepHold
	if seg.Synthetic {
		kind = domain.StepBaseline
	}
	from := seg.Value
	if e.prev != nil {
		from = *e.prev
	}
	e.emit(domain.CompiledStep{
		Kind:      kind,
		Value:     seg.Value,
		Duration:  seg.Duration,
		Direction: seg.Direction,
		From:      from,
	})
}

func (e *expander) ramp(seg domain.Segment) error {
	v0, err := e.start(seg)
	if err != nil {
		return err
	}
	values, durations, err := interpolate(seg, v0, seg.Value)
	if err != nil {
		return err
	}
	span := &rampSpan{
		record:   seg.Record,
		start:    len(e.steps),
		count:    len(values),
		period:   seg.StepPeriod,
		duration: seg.Duration,
	}
	from := v0
	for i := range values {
		e.emit(domain.CompiledStep{
			Kind:      domain.StepHold,
			Value:     values[i],
			Duration:  durations[i],
			Direction: seg.Direction,
			From:      from,
		})
		from = values[i]
	}
	e.lastRamp = span
	return nil
}

func (e *expander) nativeRamp(seg domain.Segment) error {
	v0, err := e.start(seg)
	if err != nil {
		return err
	}
	e.emit(domain.CompiledStep{
		Kind:     domain.StepNativeRamp,
		Value:    seg.Value,
		Duration: seg.Duration,
		From:     v0,
		Slope:    math.Abs(v0-seg.Value) / seg.Duration.Seconds(),
	})
	return nil
}

func (e *expander) powerJump(seg domain.Segment) {
	var sec *float64
	switch {
	case !seg.HoldAux:
		aux := seg.Aux
		sec = &aux
	case e.prevSec != nil:
		held := *e.prevSec
		sec = &held
	}
	from := seg.Value
	if e.prev != nil {
		from = *e.prev
	}
	e.emit(domain.CompiledStep{
		Kind:      domain.StepHold,
		Value:     seg.Value,
		Duration:  seg.Duration,
		Secondary: sec,
		From:      from,
	})
}

// powerRamp ramps the secondary channel. Directly after a primary ramp it is
// overlaid on that ramp's steps (a dual ramp), which must match in duration,
// step count and period. Elsewhere the primary value is held while the
// secondary channel ramps.
func (e *expander) powerRamp(seg domain.Segment, afterRamp bool) error {
	var s0 float64
	switch {
	case seg.AuxStart != nil:
		s0 = *seg.AuxStart
	case e.prevSec != nil:
		s0 = *e.prevSec
	default:
		return &domain.ParseError{Record: seg.Record, Err: domain.ErrNoBaselineMeasurement}
	}

	values, durations, err := interpolate(seg, s0, seg.Value)
	if err != nil {
		return err
	}

	if afterRamp && e.lastRamp != nil {
		span := e.lastRamp
		if span.duration != seg.Duration || span.count != len(values) || span.period != seg.StepPeriod {
			return &domain.ParseError{Record: seg.Record, Err: domain.ErrMismatchedDualRamp}
		}
		for i := range values {
			v := values[i]
			e.steps[span.start+i].Secondary = &v
		}
		last := values[len(values)-1]
		e.prevSec = &last
		return nil
	}

	hold, err := e.start(seg)
	if err != nil {
		return err
	}
	for i := range values {
		v := values[i]
		e.emit(domain.CompiledStep{
			Kind:      domain.StepHold,
			Value:     hold,
			Duration:  durations[i],
			Secondary: &v,
			From:      hold,
		})
	}
	last := values[len(values)-1]
	e.prevSec = &last
	return nil
}

// interpolate splits a ramp from v0 to target into n = floor(duration/period)
// steps. Intermediate values are rounded, the last one is exactly target and
// absorbs the remainder of the duration so the total is unchanged.
func interpolate(seg domain.Segment, v0, target float64) ([]float64, []time.Duration, error) {
	if seg.StepPeriod <= 0 {
		return nil, nil, &domain.ParseError{Record: seg.Record, Err: domain.ErrInvalidStepPeriod}
	}
	n := int(seg.Duration / seg.StepPeriod)
	if n < 1 {
		return nil, nil, &domain.ParseError{Record: seg.Record, Err: domain.ErrInvalidStepPeriod}
	}

	delta := (target - v0) / float64(n)
	values := make([]float64, n)
	durations := make([]time.Duration, n)
	for i := 1; i < n; i++ {
		values[i-1] = round(v0+float64(i)*delta, roundDecimals)
		durations[i-1] = seg.StepPeriod
	}
	values[n-1] = target
	durations[n-1] = seg.Duration - time.Duration(n-1)*seg.StepPeriod
	return values, durations, nil
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
