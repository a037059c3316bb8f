package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		record := domain.RunRecord{
			RunID:     runID,
			Axis:      "furnace",
			Recipe:    "anneal",
			Status:    domain.StatusRunning,
			StepIndex: 3,
			Steps:     12,
			Started:   time.Now().UTC().Truncate(time.Second),
		}

		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.Axis, loaded.Axis)
		assert.Equal(t, record.Recipe, loaded.Recipe)
		assert.Equal(t, domain.StatusRunning, loaded.Status)
		assert.Equal(t, 3, loaded.StepIndex)
		assert.True(t, record.Started.Equal(loaded.Started))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		record := domain.RunRecord{RunID: runID, Axis: "furnace", Status: domain.StatusAborted, Reason: domain.AbortStopped}
		require.NoError(t, store.Save(ctx, record))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAborted, loaded.Status)
		assert.Equal(t, domain.AbortStopped, loaded.Reason)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.RunRecord{RunID: runID, Axis: "furnace"}))

		err := store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		id3 := runID + "-3"
		_ = store.Save(ctx, domain.RunRecord{RunID: id1, Axis: "stage"})
		_ = store.Save(ctx, domain.RunRecord{RunID: id2, Axis: "stage"})
		_ = store.Save(ctx, domain.RunRecord{RunID: id3, Axis: "mfc"})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
			_ = store.Delete(ctx, id3)
		}()

		runs, err := store.List(ctx, "stage")
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
		assert.NotContains(t, runs, id3)

		all, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, all, id3)
	})
}
