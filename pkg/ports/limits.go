package ports

import "github.com/aretw0/setpoint/pkg/domain"

// LimitSource supplies operating bounds. The engine snapshots them once per compile.
type LimitSource interface {
	Bounds() domain.Bounds
	PositionBounds() domain.Bounds
}

// SecondaryLimitSource is implemented by limit sources that bound the secondary channel.
type SecondaryLimitSource interface {
	SecondaryBounds() domain.Bounds
}
