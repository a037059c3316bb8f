package runner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/ports"
)

// Journal keeps a RunRecord per run up to date in a RunStore.
// Store failures are logged and never interrupt a run.
type Journal struct {
	store  ports.RunStore
	logger *slog.Logger

	mu      sync.Mutex
	records map[string]domain.RunRecord
}

// NewJournal creates a journal writing to store.
func NewJournal(store ports.RunStore, logger *slog.Logger) *Journal {
	return &Journal{
		store:   store,
		logger:  logger,
		records: make(map[string]domain.RunRecord),
	}
}

// Hooks returns the lifecycle hooks that feed the journal.
func (j *Journal) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			j.save(ctx, domain.RunRecord{
				RunID:   e.RunID,
				Axis:    e.Axis,
				Recipe:  e.Recipe,
				Status:  domain.StatusRunning,
				Steps:   e.Steps,
				Started: e.Timestamp,
			})
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			j.update(ctx, e.RunID, func(r *domain.RunRecord) {
				r.StepIndex = e.Index
			})
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			j.finish(ctx, e, domain.StatusFinished)
		},
		OnRunAbort: func(ctx context.Context, e *domain.RunEvent) {
			j.finish(ctx, e, domain.StatusAborted)
		},
	}
}

func (j *Journal) finish(ctx context.Context, e *domain.RunEvent, status domain.RunStatus) {
	j.update(ctx, e.RunID, func(r *domain.RunRecord) {
		r.Status = status
		r.Reason = e.Reason
		r.Ended = e.Timestamp
		if e.Err != nil {
			r.Error = e.Err.Error()
		}
	})

	j.mu.Lock()
	delete(j.records, e.RunID)
	j.mu.Unlock()
}

func (j *Journal) update(ctx context.Context, runID string, fn func(*domain.RunRecord)) {
	j.mu.Lock()
	record, ok := j.records[runID]
	j.mu.Unlock()
	if !ok {
		return
	}
	fn(&record)
	j.save(ctx, record)
}

func (j *Journal) save(ctx context.Context, record domain.RunRecord) {
	j.mu.Lock()
	j.records[record.RunID] = record
	j.mu.Unlock()

	if err := j.store.Save(ctx, record); err != nil {
		j.logger.Warn("journal write failed", "run_id", record.RunID, "err", err)
	}
}
