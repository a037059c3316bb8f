package compiler_test

import (
	"testing"
	"time"

	"github.com/aretw0/setpoint/internal/compiler"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hold(v float64, sec float64) domain.CompiledStep {
	return domain.CompiledStep{Kind: domain.StepHold, Value: v, Duration: time.Duration(sec * float64(time.Second))}
}

func TestValidate_ValueBounds(t *testing.T) {
	limits := compiler.Limits{
		Value:     domain.Bounds{Lower: 0, Upper: 100},
		Secondary: domain.Unbounded,
	}

	require.NoError(t, compiler.Validate([]domain.CompiledStep{hold(0, 1), hold(100, 1)}, limits), "bounds are inclusive")

	err := compiler.Validate([]domain.CompiledStep{hold(50, 1), hold(150, 1), hold(200, 1)}, limits)
	require.ErrorIs(t, err, domain.ErrValueOutOfBounds)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Step)
	assert.Equal(t, 150.0, verr.Value)
	assert.Equal(t, domain.Bounds{Lower: 0, Upper: 100}, verr.Bounds)
	assert.Equal(t, domain.ChannelPrimary, verr.Channel)
}

func TestValidate_SecondaryBounds(t *testing.T) {
	limits := compiler.Limits{
		Value:     domain.Unbounded,
		Secondary: domain.Bounds{Lower: 0, Upper: 100},
	}
	over := 120.0
	step := hold(10, 1)
	step.Secondary = &over

	err := compiler.Validate([]domain.CompiledStep{hold(10, 1), step}, limits)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ChannelSecondary, verr.Channel)
	assert.Equal(t, 1, verr.Step)
	assert.Equal(t, 120.0, verr.Value)
}

func TestValidate_Position(t *testing.T) {
	limits := compiler.Limits{
		Value:         domain.Unbounded,
		Secondary:     domain.Unbounded,
		Position:      domain.Bounds{Lower: 0, Upper: 10},
		TrackPosition: true,
	}

	// 6 units/min for 60 s moves 6 units.
	err := compiler.Validate([]domain.CompiledStep{hold(6, 60), hold(6, 60)}, limits)
	require.ErrorIs(t, err, domain.ErrPositionOutOfBounds)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Step)
	assert.InDelta(t, 12.0, verr.Value, 1e-9)
	assert.Equal(t, domain.ChannelPosition, verr.Channel)

	t.Run("Independent Of Value Check", func(t *testing.T) {
		limits := limits
		limits.Value = domain.Bounds{Lower: -10, Upper: 10}
		err := compiler.Validate([]domain.CompiledStep{hold(-6, 60)}, limits)
		assert.ErrorIs(t, err, domain.ErrPositionOutOfBounds)
	})

	t.Run("Direction Gives The Sign", func(t *testing.T) {
		down := domain.DirectionDown
		step := hold(6, 60)
		step.Direction = &down

		limits := limits
		limits.StartPosition = 10
		require.NoError(t, compiler.Validate([]domain.CompiledStep{step}, limits))

		limits.StartPosition = 5
		assert.ErrorIs(t, compiler.Validate([]domain.CompiledStep{step}, limits), domain.ErrPositionOutOfBounds)
	})

	t.Run("Untracked", func(t *testing.T) {
		limits := limits
		limits.TrackPosition = false
		assert.NoError(t, compiler.Validate([]domain.CompiledStep{hold(6, 60), hold(6, 60)}, limits))
	})
}

func TestValidateLoops(t *testing.T) {
	limits := compiler.Limits{
		Value:         domain.Unbounded,
		Secondary:     domain.Unbounded,
		Position:      domain.Bounds{Lower: 0, Upper: 20},
		TrackPosition: true,
	}
	steps := []domain.CompiledStep{hold(6, 60)}

	require.NoError(t, compiler.ValidateLoops(steps, 2, limits))

	err := compiler.ValidateLoops(steps, 3, limits)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 3, verr.Step, "index in the replicated list")
	assert.InDelta(t, 24.0, verr.Value, 1e-9)

	t.Run("Balanced Cycle Never Drifts", func(t *testing.T) {
		balanced := []domain.CompiledStep{hold(6, 60), hold(-6, 60)}
		assert.NoError(t, compiler.ValidateLoops(balanced, 1000, limits))
	})
}

func TestReplicate(t *testing.T) {
	steps := []domain.CompiledStep{hold(1, 1), hold(2, 1), hold(3, 1)}

	assert.Equal(t, steps, compiler.Replicate(steps, 0))

	out := compiler.Replicate(steps, 2)
	require.Len(t, out, 9)
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3, 1, 2, 3}, values(out))
}
