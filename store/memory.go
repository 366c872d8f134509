package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Repository. It is the default when no database is
// configured and backs the tests.
type Memory struct {
	mu     sync.Mutex
	nextID uint64
	runs   map[uint64]RunRecord
	ticks  map[uint64][]TickRecord
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		nextID: 1,
		runs:   make(map[uint64]RunRecord),
		ticks:  make(map[uint64][]TickRecord),
	}
}

func (m *Memory) CreateRun(_ context.Context, run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run.ID = m.nextID
	m.nextID++
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	m.runs[run.ID] = *run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id uint64) (RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[id]
	if !ok {
		return RunRecord{}, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return run, nil
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RunRecord, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) AppendTicks(_ context.Context, ticks []TickRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range ticks {
		if _, ok := m.runs[t.RunID]; !ok {
			return fmt.Errorf("run %d: %w", t.RunID, ErrNotFound)
		}
	}
	for _, t := range ticks {
		m.ticks[t.RunID] = append(m.ticks[t.RunID], t)
	}
	return nil
}

func (m *Memory) ListTicks(_ context.Context, runID uint64) ([]TickRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[runID]; !ok {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	out := append([]TickRecord(nil), m.ticks[runID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}
