package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/setpoint/pkg/adapters/file"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_Contract(t *testing.T) {
	ports.RunStoreContract(t, file.NewRunStore(t.TempDir()))
}

func TestRunStore_MissingDirectory(t *testing.T) {
	store := file.NewRunStore(filepath.Join(t.TempDir(), "not-yet"))
	runs, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunStore_IgnoresTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.NewRunStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.RunRecord{RunID: "r1", Axis: "stage"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-r2-123.json"), []byte("{"), 0o644))

	runs, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, runs)
}
