package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/setpoint"
	"github.com/aretw0/setpoint/pkg/adapters/file"
	"github.com/aretw0/setpoint/pkg/adapters/memory"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
	"github.com/aretw0/setpoint/pkg/registry"
	"github.com/aretw0/setpoint/pkg/runner"
)

// axisWiring is what every driver of a station shares.
type axisWiring struct {
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	journal ports.RunStore
}

// engineOptions maps the configuration of an axis to engine options.
func engineOptions(axis file.AxisConfig) ([]setpoint.Option, error) {
	caps, err := axis.Capabilities()
	if err != nil {
		return nil, fmt.Errorf("axis %s: %w", axis.Name, err)
	}
	opts := []setpoint.Option{setpoint.WithCapabilities(caps)}
	if axis.BaselineFallback != nil {
		opts = append(opts, setpoint.WithBaselineFallback(*axis.BaselineFallback))
	}
	if axis.ReturnTo != nil {
		opts = append(opts, setpoint.WithFinishPolicy(setpoint.ReturnTo(*axis.ReturnTo)))
	}
	return opts, nil
}

// simulatedDevice stands in for the hardware of axis: an ideal device whose
// measurement follows every setpoint.
func simulatedDevice(axis file.AxisConfig) *memory.Device {
	opts := []memory.DeviceOption{memory.WithFollow()}
	if caps, err := axis.Capabilities(); err == nil && caps.TracksPosition() {
		start := 0.0
		if b := axis.PositionBounds; b != nil && !b.Contains(0) {
			start = b.Lower
		}
		opts = append(opts, memory.WithPosition(start))
	}
	return memory.NewDevice(opts...)
}

// newEngine builds a manually driven engine for axis on a simulated device.
func newEngine(store *file.Store, axis file.AxisConfig, logger *slog.Logger) (*setpoint.Engine, error) {
	opts, err := engineOptions(axis)
	if err != nil {
		return nil, err
	}
	limits, err := store.Limits(axis.Name)
	if err != nil {
		return nil, err
	}
	opts = append(opts, setpoint.WithLogger(logger))
	return setpoint.New(axis.Name, simulatedDevice(axis), limits, opts...)
}

// newDriver builds the wall-clock driver of axis on a simulated device.
func newDriver(store *file.Store, axis file.AxisConfig, w axisWiring) (*runner.Driver, error) {
	engineOpts, err := engineOptions(axis)
	if err != nil {
		return nil, err
	}
	limits, err := store.Limits(axis.Name)
	if err != nil {
		return nil, err
	}
	opts := []runner.Option{
		runner.WithLogger(w.logger),
		runner.WithEngineOptions(engineOpts...),
		runner.WithLifecycleHooks(w.hooks),
	}
	if w.journal != nil {
		opts = append(opts, runner.WithJournal(w.journal))
	}
	return runner.NewDriver(axis.Name, simulatedDevice(axis), limits, opts...)
}

// newRegistry registers one driver per axis of the station.
func newRegistry(store *file.Store, w axisWiring, opts ...registry.Option) (*registry.Registry, error) {
	reg := registry.New(store, append(opts, registry.WithLogger(w.logger))...)
	for _, axis := range store.Station().Axes {
		d, err := newDriver(store, axis, w)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func lookupAxis(store *file.Store, name string) (file.AxisConfig, error) {
	axis, ok := store.Station().Axis(name)
	if !ok {
		return file.AxisConfig{}, fmt.Errorf("%w: %s", domain.ErrAxisNotFound, name)
	}
	return axis, nil
}
