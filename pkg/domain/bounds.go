package domain

import (
	"fmt"
	"math"
)

// Bounds is a closed interval of allowed values.
type Bounds struct {
	Lower float64 `json:"lower" mapstructure:"lower"`
	Upper float64 `json:"upper" mapstructure:"upper"`
}

// Unbounded accepts every finite value.
var Unbounded = Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)}

// Contains reports whether lower <= v <= upper.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%g, %g)", b.Lower, b.Upper)
}
