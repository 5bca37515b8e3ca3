package runstate

import (
	"context"
	"fmt"
)

// Manager is the bean writer's view of run state. On resume it is the
// single source of truth for how far Stage E got; the surface-to-number
// mapping is always recomputed from the current collection.
type Manager struct {
	store *Store

	// resumedCount is the bean count persisted by a prior attempt,
	// read once when the manager is constructed. Zero for fresh runs.
	resumedCount int
}

// NewManager wraps a store for a fresh run: no beans are skipped.
func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// NewResumedManager wraps a store for a resumed run, reading the
// persisted bean count once.
func NewResumedManager(ctx context.Context, store *Store) (*Manager, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read resume state: %w", err)
	}
	m := &Manager{store: store}
	if state != nil {
		m.resumedCount = state.BeanCountWritten
	}
	return m, nil
}

// ResumedCount returns the bean count carried over from a prior attempt.
func (m *Manager) ResumedCount() int { return m.resumedCount }

// ShouldSkipBean reports whether the bean at this 1-based position was
// already written and checkpointed by a prior attempt.
func (m *Manager) ShouldSkipBean(beanNumber int) bool {
	return beanNumber <= m.resumedCount
}

// RecordBean checkpoints progress after a bean file write succeeds.
func (m *Manager) RecordBean(ctx context.Context, beanNumber int, beanID, path string) error {
	return m.store.RecordBean(ctx, beanNumber, beanID, path)
}
