package compiler

import "github.com/aretw0/setpoint/pkg/domain"

// Preview maps steps to a polyline starting at origin (seconds).
// Every step contributes two points: a horizontal segment for held values,
// a sloped one for native ramps.
func Preview(steps []domain.CompiledStep, origin float64) []domain.Point {
	points := make([]domain.Point, 0, 2*len(steps))
	t := origin
	for _, step := range steps {
		end := t + step.Duration.Seconds()
		start := step.Value
		if step.Kind == domain.StepNativeRamp {
			start = step.From
		}
		points = append(points,
			domain.Point{T: t, V: start},
			domain.Point{T: end, V: step.Value},
		)
		t = end
	}
	return points
}
