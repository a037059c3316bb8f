package file

import (
	"sync/atomic"

	"github.com/aretw0/setpoint/pkg/domain"
)

type limitSet struct {
	value, position, secondary domain.Bounds
}

// AxisLimits implements ports.LimitSource and ports.SecondaryLimitSource for
// one axis of a Store. A reload swaps every bound at once, so a compile never
// sees half of an old file and half of a new one.
type AxisLimits struct {
	set atomic.Pointer[limitSet]
}

func newAxisLimits(a AxisConfig) *AxisLimits {
	l := &AxisLimits{}
	l.update(a)
	return l
}

func (l *AxisLimits) update(a AxisConfig) {
	l.set.Store(&limitSet{
		value:     orUnbounded(a.Bounds),
		position:  orUnbounded(a.PositionBounds),
		secondary: orUnbounded(a.SecondaryBounds),
	})
}

func (l *AxisLimits) Bounds() domain.Bounds          { return l.set.Load().value }
func (l *AxisLimits) PositionBounds() domain.Bounds  { return l.set.Load().position }
func (l *AxisLimits) SecondaryBounds() domain.Bounds { return l.set.Load().secondary }

func orUnbounded(b *domain.Bounds) domain.Bounds {
	if b == nil {
		return domain.Unbounded
	}
	return *b
}
