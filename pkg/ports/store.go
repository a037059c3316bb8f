package ports

import (
	"context"

	"github.com/aretw0/setpoint/pkg/domain"
)

// RunStore defines the interface for journaling runs.
// Records are keyed by RunID and overwritten on every state change.
type RunStore interface {
	// Save persists the record under record.RunID.
	Save(ctx context.Context, record domain.RunRecord) error

	// Load retrieves a record.
	// Returns domain.ErrRunNotFound if it does not exist.
	Load(ctx context.Context, runID string) (domain.RunRecord, error)

	// Delete removes a record.
	Delete(ctx context.Context, runID string) error

	// List returns the run IDs recorded for axis, or all runs when axis is empty.
	List(ctx context.Context, axis string) ([]string, error)
}
