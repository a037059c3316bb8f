package setpoint_test

import (
	"context"
	"testing"

	"github.com/aretw0/setpoint"
	"github.com/aretw0/setpoint/internal/testutils"
	"github.com/aretw0/setpoint/pkg/adapters/memory"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := setpoint.New("", memory.NewDevice(), nil)
	assert.Error(t, err)

	_, err = setpoint.New("x", nil, nil)
	assert.Error(t, err)
}

func TestEngine_RunWithoutLimitsIsUnbounded(t *testing.T) {
	device := memory.NewDevice()
	timer := &testutils.FakeTimer{}
	eng, err := setpoint.New("mfc", device, nil, setpoint.WithTimer(timer))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, eng.Start(ctx, domain.Recipe{Records: []string{"5;1e6;s"}}))
	require.NoError(t, eng.Tick(ctx))

	assert.Equal(t, domain.StatusFinished, eng.State().Status)
	assert.Len(t, device.Commands(), 2)
	assert.Equal(t, []float64{5}, timer.Seconds())
}

func TestEngine_CapabilitiesAndHooks(t *testing.T) {
	var started, finished int
	hooks := domain.LifecycleHooks{
		OnRunStart:  func(context.Context, *domain.RunEvent) { started++ },
		OnRunFinish: func(context.Context, *domain.RunEvent) { finished++ },
	}
	device := memory.NewDevice(memory.WithMeasurement(25))
	eng, err := setpoint.New("furnace", device, memory.NewLimits(domain.Bounds{Lower: 0, Upper: 1200}),
		setpoint.WithCapabilities(domain.ProfileThermal),
		setpoint.WithLifecycleHooks(hooks),
		setpoint.WithFinishPolicy(setpoint.ReturnTo(0)),
	)
	require.NoError(t, err)
	assert.True(t, eng.Capabilities().SupportsNativeRamp())

	ctx := context.Background()
	require.NoError(t, eng.Start(ctx, domain.Recipe{Name: "anneal", Records: []string{"60;325;er"}}))
	for eng.State().Running() {
		require.NoError(t, eng.Tick(ctx))
	}

	cmds := device.Commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, domain.CommandNativeRampStart, cmds[1].Kind)
	assert.Equal(t, 0.0, cmds[2].Value)
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
	assert.Equal(t, "anneal", eng.Recipe())
}

func TestEngine_BaselineFallback(t *testing.T) {
	eng, err := setpoint.New("furnace", memory.NewDevice(), nil, setpoint.WithBaselineFallback(20))
	require.NoError(t, err)

	steps, err := eng.Compile(domain.Recipe{Records: []string{"4;24;r;1"}})
	require.NoError(t, err)
	assert.Len(t, steps, 5)
	assert.Equal(t, domain.StepBaseline, steps[0].Kind)
}
