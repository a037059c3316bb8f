package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/setpoint/pkg/domain"
)

// RunStore implements ports.RunStore using the local filesystem.
// Each run is one JSON file in a configured directory.
type RunStore struct {
	BasePath string
}

// NewRunStore creates a RunStore in basePath (default ".setpoint/runs").
func NewRunStore(basePath string) *RunStore {
	if basePath == "" {
		basePath = filepath.Join(".setpoint", "runs")
	}
	return &RunStore{BasePath: basePath}
}

func (s *RunStore) path(runID string) string {
	return filepath.Join(s.BasePath, runID+".json")
}

// Save writes the record atomically: temp file, fsync, rename.
func (s *RunStore) Save(ctx context.Context, record domain.RunRecord) error {
	if record.RunID == "" {
		return fmt.Errorf("run ID cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure run directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+record.RunID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(record.RunID)
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace run file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads one record.
func (s *RunStore) Load(ctx context.Context, runID string) (domain.RunRecord, error) {
	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.RunRecord{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
		}
		return domain.RunRecord{}, fmt.Errorf("failed to read run file: %w", err)
	}

	var record domain.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.RunRecord{}, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return record, nil
}

// Delete removes a record. Unknown IDs are ignored.
func (s *RunStore) Delete(ctx context.Context, runID string) error {
	if err := os.Remove(s.path(runID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete run file: %w", err)
	}
	return nil
}

// List returns the run IDs of axis, or every run ID when axis is empty.
func (s *RunStore) List(ctx context.Context, axis string) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if axis != "" {
			record, err := s.Load(ctx, id)
			if err != nil || record.Axis != axis {
				continue
			}
		}
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}
