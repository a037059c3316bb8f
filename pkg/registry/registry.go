package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/setpoint/internal/logging"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
	"github.com/aretw0/setpoint/pkg/runner"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLockWait   = 2 * time.Second
	defaultLockMargin = time.Minute
)

// Registry manages the drivers of a station, one per axis, and resolves
// recipe names through a RecipeLoader.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]*runner.Driver

	loader     ports.RecipeLoader
	locker     ports.DistributedLocker
	lockWait   time.Duration
	lockMargin time.Duration
	logger     *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLocker enforces single ownership of each axis across processes.
// An axis stays locked for the compiled duration of a run plus a margin.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Registry) {
		r.locker = locker
	}
}

// WithLockWait bounds how long Start waits for another owner to release an axis.
func WithLockWait(d time.Duration) Option {
	return func(r *Registry) {
		r.lockWait = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry resolving recipes through loader.
func New(loader ports.RecipeLoader, opts ...Option) *Registry {
	r := &Registry{
		drivers:    make(map[string]*runner.Driver),
		loader:     loader,
		lockWait:   defaultLockWait,
		lockMargin: defaultLockMargin,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a driver. Drivers must be registered before Run.
func (r *Registry) Register(d *runner.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.drivers[d.Axis()]; exists {
		return fmt.Errorf("axis %q already registered", d.Axis())
	}
	r.drivers[d.Axis()] = d
	return nil
}

// Run runs every driver loop until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	r.mu.RLock()
	drivers := make([]*runner.Driver, 0, len(r.drivers))
	for _, d := range r.drivers {
		drivers = append(drivers, d)
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range drivers {
		g.Go(func() error {
			return d.Run(gctx)
		})
	}
	return g.Wait()
}

// Axes returns the registered axis names, sorted.
func (r *Registry) Axes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Driver returns the driver of axis.
func (r *Registry) Driver(axis string) (*runner.Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[axis]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAxisNotFound, axis)
	}
	return d, nil
}

// Snapshot returns the state of axis.
func (r *Registry) Snapshot(axis string) (runner.Snapshot, error) {
	d, err := r.Driver(axis)
	if err != nil {
		return runner.Snapshot{}, err
	}
	return d.Snapshot(), nil
}

// Snapshots returns the state of every axis, sorted by name.
func (r *Registry) Snapshots() []runner.Snapshot {
	axes := r.Axes()
	out := make([]runner.Snapshot, 0, len(axes))
	for _, axis := range axes {
		if d, err := r.Driver(axis); err == nil {
			out = append(out, d.Snapshot())
		}
	}
	return out
}

// Recipes lists the recipe names available to axis.
func (r *Registry) Recipes(axis string) ([]string, error) {
	if _, err := r.Driver(axis); err != nil {
		return nil, err
	}
	return r.loader.ListRecipes(axis)
}

// Recipe resolves a recipe of axis by name.
func (r *Registry) Recipe(axis, name string) (domain.Recipe, error) {
	if _, err := r.Driver(axis); err != nil {
		return domain.Recipe{}, err
	}
	return r.loader.GetRecipe(axis, name)
}

// Preview returns the curve recipe name would follow on axis right now.
func (r *Registry) Preview(ctx context.Context, axis, name string, origin float64) ([]domain.Point, error) {
	d, recipe, err := r.resolve(axis, name)
	if err != nil {
		return nil, err
	}
	return d.Preview(ctx, recipe, origin)
}

// Start runs recipe name on axis.
func (r *Registry) Start(ctx context.Context, axis, name string) error {
	d, recipe, err := r.resolve(axis, name)
	if err != nil {
		return err
	}
	if r.locker == nil {
		return d.Start(ctx, recipe)
	}

	steps, err := d.Compile(ctx, recipe)
	if err != nil {
		return fmt.Errorf("compile recipe %q: %w", recipe.Name, err)
	}
	unlock, err := r.lock(ctx, axis, domain.TotalDuration(steps)+r.lockMargin)
	if err != nil {
		return err
	}

	if err := d.Start(ctx, recipe); err != nil {
		_ = unlock(context.WithoutCancel(ctx))
		return err
	}

	go func() {
		bg := context.WithoutCancel(ctx)
		if _, err := d.Wait(bg); err != nil && !errors.Is(err, runner.ErrDriverClosed) {
			r.logger.Warn("wait for run failed", "axis", axis, "err", err)
		}
		if err := unlock(bg); err != nil {
			r.logger.Warn("axis unlock failed", "axis", axis, "err", err)
		}
	}()
	return nil
}

// Stop aborts the run in progress on axis.
func (r *Registry) Stop(ctx context.Context, axis string) error {
	d, err := r.Driver(axis)
	if err != nil {
		return err
	}
	return d.Stop(ctx)
}

func (r *Registry) resolve(axis, name string) (*runner.Driver, domain.Recipe, error) {
	d, err := r.Driver(axis)
	if err != nil {
		return nil, domain.Recipe{}, err
	}
	recipe, err := r.loader.GetRecipe(axis, name)
	if err != nil {
		return nil, domain.Recipe{}, err
	}
	return d, recipe, nil
}

func (r *Registry) lock(ctx context.Context, axis string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockWait)
	defer cancel()

	unlock, err := r.locker.Lock(lockCtx, "axis:"+axis, ttl)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("axis %s held by another owner: %w", axis, domain.ErrEngineBusy)
		}
		return nil, fmt.Errorf("lock axis %s: %w", axis, err)
	}
	return unlock, nil
}
