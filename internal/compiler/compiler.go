package compiler

import (
	"fmt"

	"github.com/aretw0/setpoint/pkg/domain"
)

// MaxSteps caps the number of steps a recipe may compile to, loops included.
const MaxSteps = 1_000_000

// Snapshot is everything a compile reads from the outside world, captured once.
type Snapshot struct {
	Limits       Limits
	Measurements Measurements
}

// Compiler runs Parser -> Expander -> Validator -> Replicator.
// Compilation is all-or-nothing: any error discards every step.
type Compiler struct {
	parser   *Parser
	caps     domain.Capabilities
	fallback *float64
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithBaselineFallback sets the value a leading ramp starts from when the
// device reports no measurement. Without it, such recipes fail with
// ErrNoBaselineMeasurement.
func WithBaselineFallback(v float64) Option {
	return func(c *Compiler) {
		c.fallback = &v
	}
}

// New creates a compiler for a device with the given capabilities.
func New(caps domain.Capabilities, opts ...Option) *Compiler {
	if caps == nil {
		caps = domain.Profile{}
	}
	c := &Compiler{
		parser: NewParser(caps),
		caps:   caps,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capabilities returns the device capabilities the compiler was built for.
func (c *Compiler) Capabilities() domain.Capabilities {
	return c.caps
}

// Compile produces the full step list of recipe, loops included.
func (c *Compiler) Compile(recipe domain.Recipe, snap Snapshot) ([]domain.CompiledStep, error) {
	baseline := snap.Measurements.Value
	if baseline == nil {
		baseline = c.fallback
	}

	segments, err := c.parser.ParseRecipe(recipe.Records, baseline)
	if err != nil {
		return nil, err
	}

	m := snap.Measurements
	m.Value = baseline
	steps, err := Expand(segments, m)
	if err != nil {
		return nil, err
	}

	limits := snap.Limits
	limits.TrackPosition = limits.TrackPosition && c.caps.TracksPosition()
	if err := Validate(steps, limits); err != nil {
		return nil, err
	}
	if total := uint64(len(steps)) * (uint64(recipe.LoopCount) + 1); total > MaxSteps {
		return nil, fmt.Errorf("%w: %d steps over %d cycles (max %d)", domain.ErrTooManySteps, len(steps), uint64(recipe.LoopCount)+1, MaxSteps)
	}
	if err := ValidateLoops(steps, recipe.LoopCount, limits); err != nil {
		return nil, err
	}

	return Replicate(steps, recipe.LoopCount), nil
}
