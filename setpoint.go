package setpoint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/internal/runtime"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
)

// Version is the released version of the setpoint module.
var Version = "0.4.1"

// FinishPolicy builds the command sent after the last step of a run.
type FinishPolicy = runtime.FinishPolicy

var (
	// HoldLast keeps the device at the last compiled value (default).
	HoldLast FinishPolicy = runtime.HoldLast
	// NoFinishCommand sends nothing when a run completes.
	NoFinishCommand FinishPolicy = runtime.NoFinishCommand
)

// ReturnTo sends the device to a safe value when a run completes.
func ReturnTo(safe float64) FinishPolicy { return runtime.ReturnTo(safe) }

// Engine is the high-level entry point for the setpoint library.
// One Engine drives exactly one axis or channel. It wraps the internal
// sequencer and is not safe for concurrent use; see pkg/runner for a
// goroutine-safe host.
type Engine struct {
	runtime *runtime.Engine
	caps    domain.Capabilities
	timer   ports.Timer
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	extra   []runtime.EngineOption
	Axis    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithCapabilities sets what the device accepts (default: signed values only).
func WithCapabilities(caps domain.Capabilities) Option {
	return func(e *Engine) {
		e.caps = caps
	}
}

// WithTimer injects the timer that schedules ticks.
// Without it the caller ticks the engine manually.
func WithTimer(t ports.Timer) Option {
	return func(e *Engine) {
		e.timer = t
	}
}

// WithBaselineFallback lets a recipe that starts with a ramp begin at v when
// the device has no measurement. Off by default: such recipes are rejected.
func WithBaselineFallback(v float64) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, runtime.WithBaselineFallback(v))
	}
}

// WithFinishPolicy sets the command sent after the last step.
func WithFinishPolicy(p FinishPolicy) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, runtime.WithFinishPolicy(p))
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, runtime.WithClock(now))
	}
}

// New initializes an Engine for axis, sending commands to sink and
// validating against limits.
func New(axis string, sink ports.DeviceSink, limits ports.LimitSource, opts ...Option) (*Engine, error) {
	if axis == "" {
		return nil, fmt.Errorf("axis name is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("axis %s: device sink is required", axis)
	}

	eng := &Engine{Axis: axis, caps: domain.Profile{}}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.timer == nil {
		eng.timer = manualTimer{}
	}
	if eng.caps == nil {
		eng.caps = domain.Profile{}
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
	}
	runtimeOpts = append(runtimeOpts, eng.extra...)

	eng.runtime = runtime.NewEngine(axis, sink, limits, eng.timer, eng.caps, runtimeOpts...)
	return eng, nil
}

// Start compiles recipe and sends its first command.
// Compile errors are returned before anything reaches the device.
func (e *Engine) Start(ctx context.Context, recipe domain.Recipe) error {
	return e.runtime.Start(ctx, recipe)
}

// Tick advances the run by one step. Call it when the timer fires.
func (e *Engine) Tick(ctx context.Context) error {
	return e.runtime.Tick(ctx)
}

// Stop aborts the current run.
func (e *Engine) Stop(ctx context.Context) error {
	return e.runtime.Stop(ctx)
}

// Abort aborts the current run with a specific reason.
func (e *Engine) Abort(ctx context.Context, reason domain.AbortReason) error {
	return e.runtime.Abort(ctx, reason)
}

// Preview compiles recipe without running it and returns its curve.
func (e *Engine) Preview(recipe domain.Recipe, origin float64) ([]domain.Point, error) {
	return e.runtime.Preview(recipe, origin)
}

// Compile returns the steps recipe would run right now.
func (e *Engine) Compile(recipe domain.Recipe) ([]domain.CompiledStep, error) {
	return e.runtime.Compile(recipe)
}

// State returns the current run state.
func (e *Engine) State() domain.RunState {
	return e.runtime.State()
}

// Steps returns the compiled steps of the current or last run.
func (e *Engine) Steps() []domain.CompiledStep {
	return e.runtime.Steps()
}

// RunID returns the ID of the current or last run.
func (e *Engine) RunID() string {
	return e.runtime.RunID()
}

// Recipe returns the name of the current or last recipe.
func (e *Engine) Recipe() string {
	return e.runtime.Recipe()
}

// Capabilities returns the device capabilities.
func (e *Engine) Capabilities() domain.Capabilities {
	return e.caps
}

// manualTimer is used when the host drives Tick itself.
type manualTimer struct{}

func (manualTimer) Arm(time.Duration) {}
func (manualTimer) Disarm()           {}
