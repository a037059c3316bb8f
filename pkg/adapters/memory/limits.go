package memory

import (
	"sync"

	"github.com/aretw0/setpoint/pkg/domain"
)

// Limits implements ports.LimitSource and ports.SecondaryLimitSource with
// values that can be replaced at any time. The engine reads them once per
// compile, so a change only affects the next Start.
type Limits struct {
	mu        sync.RWMutex
	value     domain.Bounds
	position  domain.Bounds
	secondary domain.Bounds
}

// NewLimits creates limits with the given value bounds and unbounded
// position and secondary channels.
func NewLimits(value domain.Bounds) *Limits {
	return &Limits{
		value:     value,
		position:  domain.Unbounded,
		secondary: domain.Unbounded,
	}
}

// Set replaces the value bounds.
func (l *Limits) Set(value domain.Bounds) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = value
}

// SetPosition replaces the position bounds.
func (l *Limits) SetPosition(position domain.Bounds) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = position
}

// SetSecondary replaces the secondary-channel bounds.
func (l *Limits) SetSecondary(secondary domain.Bounds) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.secondary = secondary
}

func (l *Limits) Bounds() domain.Bounds {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value
}

func (l *Limits) PositionBounds() domain.Bounds {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

func (l *Limits) SecondaryBounds() domain.Bounds {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.secondary
}
