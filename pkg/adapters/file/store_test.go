package file_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aretw0/setpoint/pkg/adapters/file"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Limits(t *testing.T) {
	store, err := file.Open(writeStation(t, "station.yaml", stationYAML))
	require.NoError(t, err)

	limits, err := store.Limits("stage")
	require.NoError(t, err)
	assert.Equal(t, domain.Bounds{Lower: -50, Upper: 50}, limits.Bounds())
	assert.Equal(t, domain.Bounds{Lower: 0, Upper: 300}, limits.PositionBounds())
	assert.Equal(t, domain.Unbounded, limits.SecondaryBounds())

	_, err = store.Limits("nope")
	assert.ErrorIs(t, err, domain.ErrAxisNotFound)
}

func TestStore_Reload(t *testing.T) {
	path := writeStation(t, "station.yaml", stationYAML)
	store, err := file.Open(path)
	require.NoError(t, err)

	limits, err := store.Limits("furnace")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("axes:\n  - name: furnace\n    bounds: {lower: 0, upper: 500}\n"), 0o644))
	require.NoError(t, store.Reload())
	assert.Equal(t, domain.Bounds{Lower: 0, Upper: 500}, limits.Bounds(), "handed-out limits follow the file")

	_, err = store.GetRecipe("furnace", "anneal")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	t.Run("Invalid Edit Keeps Previous", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("axes:\n  - name: furnace\n    bounds: {lower: 9, upper: 1}\n"), 0o644))
		assert.Error(t, store.Reload())
		assert.Equal(t, domain.Bounds{Lower: 0, Upper: 500}, limits.Bounds())
	})
}

func TestStore_Watch(t *testing.T) {
	path := writeStation(t, "station.yaml", stationYAML)
	store, err := file.Open(path, file.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	limits, err := store.Limits("furnace")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reloads, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("axes:\n  - name: furnace\n    bounds: {lower: 0, upper: 800}\n"), 0o644))

	select {
	case <-reloads:
	case <-ctx.Done():
		t.Fatal("no reload signalled")
	}
	assert.Equal(t, domain.Bounds{Lower: 0, Upper: 800}, limits.Bounds())
}
