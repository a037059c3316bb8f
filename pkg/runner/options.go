package runner

import (
	"log/slog"

	"github.com/aretw0/setpoint"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
)

// Option defines a functional option for configuring the Driver.
type Option func(*Driver)

// WithLogger configures the structured logger shared by the driver and its engine.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithEngineOptions forwards options to the hosted engine.
func WithEngineOptions(opts ...setpoint.Option) Option {
	return func(d *Driver) {
		d.engineOpts = append(d.engineOpts, opts...)
	}
}

// WithLifecycleHooks registers hooks on the hosted engine.
// They run on the driver goroutine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Driver) {
		d.hooks = d.hooks.Merge(hooks)
	}
}

// WithJournal records every run of the axis in store.
func WithJournal(store ports.RunStore) Option {
	return func(d *Driver) {
		if store != nil {
			d.journal = store
		}
	}
}
