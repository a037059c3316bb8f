package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/setpoint"
	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
)

// ErrDriverClosed is returned by calls made after Run has returned.
var ErrDriverClosed = errors.New("driver closed")

// Snapshot is a point-in-time view of an axis, readable from any goroutine.
type Snapshot struct {
	Axis   string          `json:"axis"`
	RunID  string          `json:"run_id,omitempty"`
	Recipe string          `json:"recipe,omitempty"`
	State  domain.RunState `json:"state"`
	Steps  int             `json:"steps"`
}

// Driver serializes every call to one axis engine on a single goroutine.
type Driver struct {
	axis       string
	engine     *setpoint.Engine
	logger     *slog.Logger
	engineOpts []setpoint.Option
	hooks      domain.LifecycleHooks
	journal    ports.RunStore

	calls chan func()
	ticks chan uint64
	done  chan struct{}
	once  sync.Once

	// Owned by the loop goroutine.
	timer   *time.Timer
	gen     uint64
	armed   bool
	runDone chan struct{}

	mu   sync.RWMutex
	snap Snapshot
}

// NewDriver creates the engine of axis and the driver that hosts it.
// Nothing runs until Run is called.
func NewDriver(axis string, sink ports.DeviceSink, limits ports.LimitSource, opts ...Option) (*Driver, error) {
	d := &Driver{
		axis:   axis,
		logger: logging.NewNop(),
		calls:  make(chan func()),
		ticks:  make(chan uint64),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	hooks := d.hooks
	if d.journal != nil {
		hooks = NewJournal(d.journal, d.logger).Hooks().Merge(hooks)
	}

	engineOpts := []setpoint.Option{setpoint.WithLogger(d.logger)}
	engineOpts = append(engineOpts, d.engineOpts...)
	engineOpts = append(engineOpts,
		setpoint.WithTimer(wallTimer{d}),
		setpoint.WithLifecycleHooks(hooks),
	)

	engine, err := setpoint.New(axis, sink, limits, engineOpts...)
	if err != nil {
		return nil, err
	}
	d.engine = engine
	d.snap = Snapshot{Axis: axis, State: engine.State()}
	return d, nil
}

// Axis returns the axis name.
func (d *Driver) Axis() string { return d.axis }

// Capabilities returns what the hosted device accepts.
func (d *Driver) Capabilities() domain.Capabilities { return d.engine.Capabilities() }

// Snapshot returns the state published after the last call or tick.
func (d *Driver) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap
}

// Run is the driver loop. It blocks until ctx is cancelled, then stops any
// run in progress and returns.
func (d *Driver) Run(ctx context.Context) error {
	started := false
	d.once.Do(func() { started = true })
	if !started {
		return fmt.Errorf("axis %s: driver already running", d.axis)
	}
	defer close(d.done)

	d.logger.Debug("driver started", "axis", d.axis)
	for {
		select {
		case <-ctx.Done():
			d.shutdown(context.WithoutCancel(ctx))
			d.logger.Debug("driver stopped", "axis", d.axis)
			return nil
		case fn := <-d.calls:
			fn()
		case gen := <-d.ticks:
			if gen != d.gen || !d.armed {
				continue
			}
			d.armed = false
			if err := d.engine.Tick(ctx); err != nil && !errors.Is(err, domain.ErrNotRunning) {
				d.logger.Error("tick failed", "axis", d.axis, "err", err)
			}
		}
		d.settle()
	}
}

// Start compiles recipe and begins running it.
func (d *Driver) Start(ctx context.Context, recipe domain.Recipe) error {
	return d.do(ctx, func() error {
		if err := d.engine.Start(ctx, recipe); err != nil {
			return err
		}
		d.runDone = make(chan struct{})
		return nil
	})
}

// Stop aborts the run in progress.
func (d *Driver) Stop(ctx context.Context) error {
	return d.do(ctx, func() error {
		return d.engine.Stop(ctx)
	})
}

// Abort aborts the run in progress with reason.
func (d *Driver) Abort(ctx context.Context, reason domain.AbortReason) error {
	return d.do(ctx, func() error {
		return d.engine.Abort(ctx, reason)
	})
}

// Compile returns the steps recipe would run right now.
func (d *Driver) Compile(ctx context.Context, recipe domain.Recipe) ([]domain.CompiledStep, error) {
	var steps []domain.CompiledStep
	err := d.do(ctx, func() error {
		var err error
		steps, err = d.engine.Compile(recipe)
		return err
	})
	return steps, err
}

// Preview compiles recipe and returns its curve from origin seconds.
func (d *Driver) Preview(ctx context.Context, recipe domain.Recipe, origin float64) ([]domain.Point, error) {
	var points []domain.Point
	err := d.do(ctx, func() error {
		var err error
		points, err = d.engine.Preview(recipe, origin)
		return err
	})
	return points, err
}

// Wait blocks until the current run finishes or aborts and returns its final
// state. Without a run in progress it returns immediately.
func (d *Driver) Wait(ctx context.Context) (domain.RunState, error) {
	var runDone chan struct{}
	if err := d.do(ctx, func() error {
		runDone = d.runDone
		return nil
	}); err != nil {
		return domain.RunState{}, err
	}

	if runDone != nil {
		select {
		case <-runDone:
		case <-ctx.Done():
			return domain.RunState{}, ctx.Err()
		case <-d.done:
		}
	}
	return d.Snapshot().State, nil
}

// do runs fn on the loop goroutine and returns its error.
func (d *Driver) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	call := func() { errc <- fn() }
	select {
	case d.calls <- call:
	case <-d.done:
		return ErrDriverClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-errc
}

// settle publishes the engine state and releases waiters of a finished run.
func (d *Driver) settle() {
	state := d.engine.State()

	d.mu.Lock()
	d.snap = Snapshot{
		Axis:   d.axis,
		RunID:  d.engine.RunID(),
		Recipe: d.engine.Recipe(),
		State:  state,
		Steps:  len(d.engine.Steps()),
	}
	d.mu.Unlock()

	if state.Done() && d.runDone != nil {
		close(d.runDone)
		d.runDone = nil
	}
}

func (d *Driver) shutdown(ctx context.Context) {
	if d.engine.State().Running() {
		if err := d.engine.Stop(ctx); err != nil {
			d.logger.Error("stop on shutdown failed", "axis", d.axis, "err", err)
		}
	}
	d.disarm()
	d.settle()
}

func (d *Driver) disarm() {
	d.gen++
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// wallTimer implements ports.Timer with time.AfterFunc. The engine only
// calls it from the loop goroutine.
type wallTimer struct {
	d *Driver
}

func (t wallTimer) Arm(dur time.Duration) {
	d := t.d
	d.disarm()
	d.armed = true
	gen := d.gen
	d.timer = time.AfterFunc(dur, func() {
		select {
		case d.ticks <- gen:
		case <-d.done:
		}
	})
}

func (t wallTimer) Disarm() {
	t.d.disarm()
}
