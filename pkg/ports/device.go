package ports

import (
	"context"

	"github.com/aretw0/setpoint/pkg/domain"
)

// DeviceSink is the device a sequencer drives.
// The engine emits commands, and the host implements this interface to deliver them.
type DeviceSink interface {
	// Send delivers one command. Retry policy, if any, belongs to the sink.
	Send(ctx context.Context, cmd domain.Command) error

	// CurrentValue returns the live primary measurement, if one exists.
	CurrentValue() (float64, bool)

	// CurrentPosition returns the last measured position of a linear actuator.
	CurrentPosition() (float64, bool)
}

// SecondaryReader is implemented by sinks that measure a secondary channel
// (e.g. heater output power).
type SecondaryReader interface {
	CurrentSecondary() (float64, bool)
}
