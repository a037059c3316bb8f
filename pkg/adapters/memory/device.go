package memory

import (
	"context"
	"sync"

	"github.com/aretw0/setpoint/pkg/domain"
)

// Device implements ports.DeviceSink and ports.SecondaryReader in memory.
// It records every command it receives, which makes it the device of
// choice for tests, dry runs and the CLI simulator.
// Safe for concurrent use.
type Device struct {
	mu        sync.Mutex
	commands  []domain.Command
	value     *float64
	position  *float64
	secondary *float64
	follow    bool
	failOn    func(domain.Command) error
}

// DeviceOption configures a Device.
type DeviceOption func(*Device)

// WithMeasurement sets the initial primary measurement.
func WithMeasurement(v float64) DeviceOption {
	return func(d *Device) { d.value = &v }
}

// WithPosition sets the initial position of a linear actuator.
func WithPosition(p float64) DeviceOption {
	return func(d *Device) { d.position = &p }
}

// WithSecondary sets the initial secondary measurement.
func WithSecondary(v float64) DeviceOption {
	return func(d *Device) { d.secondary = &v }
}

// WithFollow makes the measurement track every setpoint it receives, as an
// ideal device would.
func WithFollow() DeviceOption {
	return func(d *Device) { d.follow = true }
}

// WithFailure makes Send return the error produced by fn (nil accepts the command).
func WithFailure(fn func(domain.Command) error) DeviceOption {
	return func(d *Device) { d.failOn = fn }
}

// NewDevice creates a simulated device.
func NewDevice(opts ...DeviceOption) *Device {
	d := &Device{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send records cmd.
func (d *Device) Send(ctx context.Context, cmd domain.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOn != nil {
		if err := d.failOn(cmd); err != nil {
			return err
		}
	}
	d.commands = append(d.commands, cmd)
	if d.follow && cmd.Kind != domain.CommandNativeRampReset {
		v := cmd.Value
		d.value = &v
		if cmd.Secondary != nil {
			s := *cmd.Secondary
			d.secondary = &s
		}
	}
	return nil
}

func (d *Device) CurrentValue() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.value == nil {
		return 0, false
	}
	return *d.value, true
}

func (d *Device) CurrentPosition() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.position == nil {
		return 0, false
	}
	return *d.position, true
}

func (d *Device) CurrentSecondary() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.secondary == nil {
		return 0, false
	}
	return *d.secondary, true
}

// SetMeasurement replaces the primary measurement; nil clears it.
func (d *Device) SetMeasurement(v *float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = v
}

// SetPosition replaces the position measurement; nil clears it.
func (d *Device) SetPosition(p *float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.position = p
}

// Commands returns a copy of every command received so far.
func (d *Device) Commands() []domain.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Command, len(d.commands))
	copy(out, d.commands)
	return out
}

// Reset forgets the recorded commands.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = nil
}
