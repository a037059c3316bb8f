package runtime

import (
	"fmt"

	"github.com/aretw0/setpoint/internal/compiler"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
)

// snapshot captures bounds and measurements once for a compile.
func (e *Engine) snapshot() (compiler.Snapshot, error) {
	limits := compiler.Limits{
		Value:     domain.Unbounded,
		Secondary: domain.Unbounded,
		Position:  domain.Unbounded,
	}
	if e.limits != nil {
		limits.Value = e.limits.Bounds()
		limits.Position = e.limits.PositionBounds()
		if sec, ok := e.limits.(ports.SecondaryLimitSource); ok {
			limits.Secondary = sec.SecondaryBounds()
		}
	}

	var m compiler.Measurements
	if v, ok := e.sink.CurrentValue(); ok {
		m.Value = &v
	}
	if r, ok := e.sink.(ports.SecondaryReader); ok {
		if v, ok := r.CurrentSecondary(); ok {
			m.Secondary = &v
		}
	}

	if e.compiler.Capabilities().TracksPosition() {
		pos, ok := e.sink.CurrentPosition()
		if !ok {
			return compiler.Snapshot{}, fmt.Errorf("position tracking: %w", domain.ErrNoBaselineMeasurement)
		}
		m.Position = &pos
		limits.TrackPosition = true
		limits.StartPosition = pos
	}

	return compiler.Snapshot{Limits: limits, Measurements: m}, nil
}
