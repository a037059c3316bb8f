package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/setpoint/pkg/adapters/memory"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_RecordsAndFollows(t *testing.T) {
	ctx := context.Background()
	dev := memory.NewDevice(memory.WithFollow())

	_, ok := dev.CurrentValue()
	assert.False(t, ok, "no measurement before the first command")

	require.NoError(t, dev.Send(ctx, domain.Command{Kind: domain.CommandSetpoint, Value: 12.5}))
	v, ok := dev.CurrentValue()
	require.True(t, ok)
	assert.Equal(t, 12.5, v)
	assert.Len(t, dev.Commands(), 1)

	dev.Reset()
	assert.Empty(t, dev.Commands())
}

func TestDevice_Failure(t *testing.T) {
	boom := errors.New("serial timeout")
	dev := memory.NewDevice(memory.WithFailure(func(cmd domain.Command) error {
		if cmd.Step == 2 {
			return boom
		}
		return nil
	}))

	ctx := context.Background()
	assert.NoError(t, dev.Send(ctx, domain.Command{Step: 1}))
	assert.ErrorIs(t, dev.Send(ctx, domain.Command{Step: 2}), boom)
	assert.Len(t, dev.Commands(), 1)
}

func TestLimits_Reload(t *testing.T) {
	limits := memory.NewLimits(domain.Bounds{Lower: 0, Upper: 100})
	assert.True(t, limits.Bounds().Contains(100))

	limits.Set(domain.Bounds{Lower: 0, Upper: 50})
	assert.False(t, limits.Bounds().Contains(100))
	assert.Equal(t, domain.Unbounded, limits.PositionBounds())
}
