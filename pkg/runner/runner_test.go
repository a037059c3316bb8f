package runner_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/setpoint"
	"github.com/aretw0/setpoint/pkg/adapters/memory"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDriver(t *testing.T, device *memory.Device, opts ...runner.Option) (*runner.Driver, context.CancelFunc) {
	t.Helper()
	d, err := runner.NewDriver("mfc", device, memory.NewLimits(domain.Bounds{Lower: 0, Upper: 100}), opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return d, cancel
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func values(cmds []domain.Command) []float64 {
	out := make([]float64, len(cmds))
	for i, c := range cmds {
		out[i] = c.Value
	}
	return out
}

func TestDriver_RunsToCompletion(t *testing.T) {
	device := memory.NewDevice()
	d, _ := startDriver(t, device)
	ctx := waitCtx(t)

	require.NoError(t, d.Start(ctx, domain.Recipe{Name: "quick", Records: []string{"0.01;10;s", "0.02;20;r;0.01"}}))

	state, err := d.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, state.Status)
	assert.Equal(t, []float64{10, 15, 20, 20}, values(device.Commands()))

	snap := d.Snapshot()
	assert.Equal(t, "quick", snap.Recipe)
	assert.Equal(t, 3, snap.Steps)
	assert.NotEmpty(t, snap.RunID)
}

func TestDriver_StopDiscardsPendingTick(t *testing.T) {
	device := memory.NewDevice()
	d, _ := startDriver(t, device)
	ctx := waitCtx(t)

	require.NoError(t, d.Start(ctx, domain.Recipe{Records: []string{"0.05;10;s", "0.05;20;s"}}))
	require.NoError(t, d.Stop(ctx))

	state, err := d.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAborted, state.Status)
	assert.Equal(t, domain.AbortStopped, state.Reason)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []float64{10}, values(device.Commands()))
	assert.ErrorIs(t, d.Stop(ctx), domain.ErrNotRunning)
}

func TestDriver_Busy(t *testing.T) {
	d, _ := startDriver(t, memory.NewDevice())
	ctx := waitCtx(t)
	recipe := domain.Recipe{Records: []string{"10;10;s"}}

	require.NoError(t, d.Start(ctx, recipe))
	assert.ErrorIs(t, d.Start(ctx, recipe), domain.ErrEngineBusy)
	require.NoError(t, d.Abort(ctx, domain.AbortOperator))

	state, err := d.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AbortOperator, state.Reason)
}

func TestDriver_ShutdownStopsRun(t *testing.T) {
	device := memory.NewDevice()
	d, cancel := startDriver(t, device)
	ctx := waitCtx(t)

	require.NoError(t, d.Start(ctx, domain.Recipe{Records: []string{"10;10;s"}}))
	cancel()

	state, err := d.Wait(ctx)
	if err == nil {
		assert.Equal(t, domain.StatusAborted, state.Status)
	} else {
		assert.ErrorIs(t, err, runner.ErrDriverClosed)
	}

	assert.Eventually(t, func() bool {
		return d.Start(ctx, domain.Recipe{Records: []string{"1;10;s"}}) == runner.ErrDriverClosed
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, domain.StatusAborted, d.Snapshot().State.Status)
}

func TestDriver_ConcurrentCallers(t *testing.T) {
	d, _ := startDriver(t, memory.NewDevice())
	ctx := waitCtx(t)
	recipe := domain.Recipe{Records: []string{"0.01;10;s", "0.05;50;r;0.01"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			points, err := d.Preview(ctx, recipe, 0)
			assert.NoError(t, err)
			assert.Len(t, points, 12)
			_ = d.Snapshot()
		}()
	}
	require.NoError(t, d.Start(ctx, recipe))
	wg.Wait()

	state, err := d.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, state.Status)
}

func TestDriver_Journal(t *testing.T) {
	store := memory.NewStore()
	d, _ := startDriver(t, memory.NewDevice(), runner.WithJournal(store),
		runner.WithEngineOptions(setpoint.WithFinishPolicy(setpoint.NoFinishCommand)))
	ctx := waitCtx(t)

	require.NoError(t, d.Start(ctx, domain.Recipe{Name: "purge", Records: []string{"0.01;10;s", "0.01;0;s"}}))
	_, err := d.Wait(ctx)
	require.NoError(t, err)

	record, err := store.Load(ctx, d.Snapshot().RunID)
	require.NoError(t, err)
	assert.Equal(t, "mfc", record.Axis)
	assert.Equal(t, "purge", record.Recipe)
	assert.Equal(t, domain.StatusFinished, record.Status)
	assert.Equal(t, 1, record.StepIndex)
	assert.Equal(t, 2, record.Steps)
	assert.False(t, record.Ended.Before(record.Started))
}
