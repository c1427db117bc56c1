package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/packsight/packsight/internal/models"
)

// MemoryStore keeps runs in process memory. It backs deployments that have no
// database configured; history disappears on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.PipelineRun
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: map[uuid.UUID]models.PipelineRun{}}
}

func (m *MemoryStore) CreateRun(ctx context.Context, in RunInput) (models.PipelineRun, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	run := models.PipelineRun{
		ID:         in.ID,
		Pipeline:   in.Pipeline,
		Categories: append([]string(nil), in.Categories...),
		MaxOrders:  in.MaxOrders,
		Status:     models.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return run, nil
}

func (m *MemoryStore) FinishRun(ctx context.Context, id uuid.UUID, status string, results []models.CategoryResult) (models.PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return models.PipelineRun{}, ErrNotFound
	}
	now := time.Now().UTC()
	run.Status = status
	run.Results = append([]models.CategoryResult(nil), results...)
	run.FinishedAt = &now
	m.runs[id] = run
	return run, nil
}

func (m *MemoryStore) GetRun(ctx context.Context, id uuid.UUID) (models.PipelineRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return models.PipelineRun{}, ErrNotFound
	}
	return run, nil
}

func (m *MemoryStore) ListRuns(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]models.PipelineRun, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	limit = normalizeLimit(limit)
	if limit > len(runs) {
		limit = len(runs)
	}
	result := make([]models.PipelineRun, limit)
	copy(result, runs[:limit])
	return result, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
