package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/setpoint/internal/compiler"
	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
	"github.com/google/uuid"
)

// FinishPolicy builds the terminal command sent after the last step.
// Returning false sends nothing.
type FinishPolicy func(axis string, index int, last domain.CompiledStep) (domain.Command, bool)

// HoldLast keeps the device at the last compiled value.
func HoldLast(axis string, index int, last domain.CompiledStep) (domain.Command, bool) {
	return domain.Command{
		Axis:      axis,
		Kind:      domain.CommandFinish,
		Step:      index,
		Value:     last.Value,
		Direction: last.Direction,
		Secondary: last.Secondary,
	}, true
}

// ReturnTo drives the device to a safe value once the recipe is over.
// On direction-only devices the direction points from the last value to safe.
func ReturnTo(safe float64) FinishPolicy {
	return func(axis string, index int, last domain.CompiledStep) (domain.Command, bool) {
		cmd := domain.Command{Axis: axis, Kind: domain.CommandFinish, Step: index, Value: safe}
		if last.Direction != nil {
			dir := domain.DirectionUp
			if safe < last.Value {
				dir = domain.DirectionDown
			}
			cmd.Direction = &dir
		}
		return cmd, true
	}
}

// NoFinishCommand leaves the device untouched at the end of a run.
func NoFinishCommand(string, int, domain.CompiledStep) (domain.Command, bool) {
	return domain.Command{}, false
}

// Engine is the cooperative sequencer of one axis.
// It is driven, not self-scheduling: the host calls Tick whenever the Timer fires.
// Engine is not safe for concurrent use; serialize every call for one axis.
type Engine struct {
	axis     string
	sink     ports.DeviceSink
	limits   ports.LimitSource
	timer    ports.Timer
	compiler *compiler.Compiler

	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	finish      FinishPolicy
	compileOpts []compiler.Option
	now         func() time.Time
	newRunID    func() string

	recipe string
	runID  string
	steps  []domain.CompiledStep
	state  domain.RunState
	gen    uint64
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithFinishPolicy sets the command sent after the last step (default HoldLast).
func WithFinishPolicy(policy FinishPolicy) EngineOption {
	return func(e *Engine) {
		if policy != nil {
			e.finish = policy
		}
	}
}

// WithBaselineFallback lets a leading ramp start from v when no measurement exists.
func WithBaselineFallback(v float64) EngineOption {
	return func(e *Engine) {
		e.compileOpts = append(e.compileOpts, compiler.WithBaselineFallback(v))
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRunIDGenerator overrides how run IDs are generated.
func WithRunIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		e.newRunID = gen
	}
}

// NewEngine creates a sequencer for one axis.
func NewEngine(axis string, sink ports.DeviceSink, limits ports.LimitSource, timer ports.Timer, caps domain.Capabilities, opts ...EngineOption) *Engine {
	e := &Engine{
		axis:     axis,
		sink:     sink,
		limits:   limits,
		timer:    timer,
		logger:   logging.NewNop(),
		finish:   HoldLast,
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
		state:    domain.RunState{Status: domain.StatusIdle},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.compiler = compiler.New(caps, e.compileOpts...)
	e.logger = e.logger.With("axis", axis)
	return e
}

// Axis returns the axis name.
func (e *Engine) Axis() string { return e.axis }

// State returns the current run state.
func (e *Engine) State() domain.RunState { return e.state }

// RunID returns the ID of the current (or last) run.
func (e *Engine) RunID() string { return e.runID }

// Recipe returns the name of the current (or last) recipe.
func (e *Engine) Recipe() string { return e.recipe }

// Steps returns a copy of the compiled steps of the current (or last) run.
func (e *Engine) Steps() []domain.CompiledStep {
	out := make([]domain.CompiledStep, len(e.steps))
	copy(out, e.steps)
	return out
}

// Compile compiles recipe against a fresh snapshot of limits and measurements.
// It never touches the run state.
func (e *Engine) Compile(recipe domain.Recipe) ([]domain.CompiledStep, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	steps, err := e.compiler.Compile(recipe, snap)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, domain.ErrEmptyRecipe
	}
	return steps, nil
}

// Preview compiles recipe and returns its curve starting at origin seconds.
func (e *Engine) Preview(recipe domain.Recipe, origin float64) ([]domain.Point, error) {
	steps, err := e.Compile(recipe)
	if err != nil {
		return nil, err
	}
	return compiler.Preview(steps, origin), nil
}

// Start compiles recipe and enters its first step.
// A recipe that fails to compile sends nothing and leaves the state untouched.
func (e *Engine) Start(ctx context.Context, recipe domain.Recipe) error {
	if e.state.Running() {
		return domain.ErrEngineBusy
	}

	steps, err := e.Compile(recipe)
	if err != nil {
		e.logger.Warn("recipe rejected", "recipe", recipe.Name, "err", err)
		return fmt.Errorf("compile recipe %q: %w", recipe.Name, err)
	}

	e.gen++
	e.steps = steps
	e.recipe = recipe.Name
	e.runID = e.newRunID()
	e.state = domain.RunState{Status: domain.StatusRunning}

	e.logger.Info("run started",
		"run_id", e.runID,
		"recipe", recipe.Name,
		"steps", len(steps),
		"loops", recipe.LoopCount,
		"duration", domain.TotalDuration(steps))

	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, e.runEvent(domain.EventRunStart))
		if !e.current(e.gen) {
			return nil
		}
	}
	return e.enter(ctx, 0)
}

// Tick advances to the next step, or finishes the run after the last one.
func (e *Engine) Tick(ctx context.Context) error {
	if !e.state.Running() {
		return domain.ErrNotRunning
	}
	next := e.state.StepIndex + 1
	if next >= len(e.steps) {
		return e.complete(ctx)
	}
	e.state.StepIndex = next
	return e.enter(ctx, next)
}

// Stop aborts the run with AbortStopped.
func (e *Engine) Stop(ctx context.Context) error {
	return e.Abort(ctx, domain.AbortStopped)
}

// Abort disarms the timer and leaves the running state immediately.
// A native ramp in flight is reset so the device stops driving it.
func (e *Engine) Abort(ctx context.Context, reason domain.AbortReason) error {
	if !e.state.Running() {
		return domain.ErrNotRunning
	}
	return e.abort(ctx, reason, nil)
}

func (e *Engine) current(gen uint64) bool {
	return e.gen == gen && e.state.Running()
}

// enter sends the command of step i and arms the timer for its duration.
func (e *Engine) enter(ctx context.Context, i int) error {
	gen := e.gen
	step := e.steps[i]

	if e.hooks.OnStep != nil {
		e.hooks.OnStep(ctx, &domain.StepEvent{
			EventBase: e.base(domain.EventStep),
			Index:     i,
			Step:      step,
		})
		if !e.current(gen) {
			return nil
		}
	}

	e.logger.Debug("step", "run_id", e.runID, "index", i, "step", step.String())
	if err := e.sink.Send(ctx, domain.CommandFor(e.axis, i, step)); err != nil {
		derr := &domain.DeviceError{Step: i, Err: err}
		e.logger.Error("device rejected command", "run_id", e.runID, "index", i, "err", err)
		_ = e.abort(ctx, domain.AbortDeviceError, derr)
		return derr
	}
	if e.current(gen) {
		e.timer.Arm(step.Duration)
	}
	return nil
}

func (e *Engine) complete(ctx context.Context) error {
	e.timer.Disarm()
	last := len(e.steps) - 1
	e.state = domain.RunState{Status: domain.StatusFinished, StepIndex: last}

	var err error
	if cmd, ok := e.finish(e.axis, last, e.steps[last]); ok {
		if sendErr := e.sink.Send(ctx, cmd); sendErr != nil {
			err = &domain.DeviceError{Step: last, Err: sendErr}
			e.state.Err = err
			e.logger.Error("finish command failed", "run_id", e.runID, "err", sendErr)
		}
	}

	e.logger.Info("run finished", "run_id", e.runID, "recipe", e.recipe)
	if e.hooks.OnRunFinish != nil {
		ev := e.runEvent(domain.EventRunFinish)
		ev.Err = err
		e.hooks.OnRunFinish(ctx, ev)
	}
	return err
}

func (e *Engine) abort(ctx context.Context, reason domain.AbortReason, cause error) error {
	e.timer.Disarm()
	idx := e.state.StepIndex
	e.state = domain.RunState{Status: domain.StatusAborted, StepIndex: idx, Reason: reason, Err: cause}

	var err error
	if cause == nil && idx < len(e.steps) && e.steps[idx].Kind == domain.StepNativeRamp {
		hold := e.steps[idx].From
		if v, ok := e.sink.CurrentValue(); ok {
			hold = v
		}
		reset := domain.Command{Axis: e.axis, Kind: domain.CommandNativeRampReset, Step: idx, Value: hold}
		if sendErr := e.sink.Send(ctx, reset); sendErr != nil {
			err = &domain.DeviceError{Step: idx, Err: sendErr}
			e.state.Err = err
			e.logger.Error("native ramp reset failed", "run_id", e.runID, "err", sendErr)
		}
	}

	e.logger.Warn("run aborted", "run_id", e.runID, "recipe", e.recipe, "step", idx, "reason", reason)
	if e.hooks.OnRunAbort != nil {
		ev := e.runEvent(domain.EventRunAbort)
		ev.Reason = reason
		ev.Err = e.state.Err
		e.hooks.OnRunAbort(ctx, ev)
	}
	return err
}

func (e *Engine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, Axis: e.axis, RunID: e.runID}
}

func (e *Engine) runEvent(t domain.EventType) *domain.RunEvent {
	return &domain.RunEvent{EventBase: e.base(t), Recipe: e.recipe, Steps: len(e.steps)}
}
