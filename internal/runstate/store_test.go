package runstate_test

import (
	"context"
	"testing"

	"harvester/internal/runstate"
	"harvester/internal/testsupport"
)

func TestLoadEmptyStore(t *testing.T) {
	store := testsupport.MustOpenStore(t, t.TempDir())
	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state for empty store, got %+v", state)
	}
}

func TestBeginAndLoad(t *testing.T) {
	store := testsupport.MustOpenStore(t, t.TempDir())
	ctx := context.Background()

	if err := store.Begin(ctx, "run-abc", "https://example.com/repo.git"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state == nil {
		t.Fatal("Load returned nil after Begin")
	}
	if state.RunID != "run-abc" {
		t.Fatalf("RunID = %q", state.RunID)
	}
	if state.RepoLocator != "https://example.com/repo.git" {
		t.Fatalf("RepoLocator = %q", state.RepoLocator)
	}
	if state.LastCompletedStage != "" {
		t.Fatalf("LastCompletedStage = %q, want empty", state.LastCompletedStage)
	}
	if state.BeanCountWritten != 0 {
		t.Fatalf("BeanCountWritten = %d, want 0", state.BeanCountWritten)
	}
	if state.CreatedAt.IsZero() || state.UpdatedAt.IsZero() {
		t.Fatal("timestamps not persisted")
	}
}

func TestBeginResetsPriorRun(t *testing.T) {
	store := testsupport.MustOpenStore(t, t.TempDir())
	ctx := context.Background()

	if err := store.Begin(ctx, "run-1", "/repo"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.RecordStage(ctx, "C"); err != nil {
		t.Fatalf("RecordStage: %v", err)
	}
	if err := store.RecordBean(ctx, 1, "BEAN-001", "beans/BEAN-001-x.md"); err != nil {
		t.Fatalf("RecordBean: %v", err)
	}

	if err := store.Begin(ctx, "run-2", "/repo"); err != nil {
		t.Fatalf("second Begin: %v", err)
	}
	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.RunID != "run-2" || state.LastCompletedStage != "" || state.BeanCountWritten != 0 {
		t.Fatalf("prior run not reset: %+v", state)
	}
}

func TestRecordStage(t *testing.T) {
	store := testsupport.MustOpenStore(t, t.TempDir())
	ctx := context.Background()

	if err := store.Begin(ctx, "run-1", "/repo"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, stage := range []string{"A", "B", "C"} {
		if err := store.RecordStage(ctx, stage); err != nil {
			t.Fatalf("RecordStage(%s): %v", stage, err)
		}
	}
	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.LastCompletedStage != "C" {
		t.Fatalf("LastCompletedStage = %q, want C", state.LastCompletedStage)
	}
}

func TestRecordBeanCountMonotonic(t *testing.T) {
	store := testsupport.MustOpenStore(t, t.TempDir())
	ctx := context.Background()

	if err := store.Begin(ctx, "run-1", "/repo"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, n := range []int{1, 2, 3, 2} {
		if err := store.RecordBean(ctx, n, "BEAN-00X", "beans/x.md"); err != nil {
			t.Fatalf("RecordBean(%d): %v", n, err)
		}
	}
	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.BeanCountWritten != 3 {
		t.Fatalf("BeanCountWritten = %d, want 3 (count never moves backward)", state.BeanCountWritten)
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := runstate.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Begin(ctx, "run-1", "/repo"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.RecordBean(ctx, 4, "BEAN-004", "beans/BEAN-004-x.md"); err != nil {
		t.Fatalf("RecordBean: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, dir)
	state, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if state == nil || state.BeanCountWritten != 4 {
		t.Fatalf("state after reopen = %+v, want bean count 4", state)
	}
}

func TestResumedManager(t *testing.T) {
	store := testsupport.MustOpenStore(t, t.TempDir())
	ctx := context.Background()

	if err := store.Begin(ctx, "run-1", "/repo"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for n := 1; n <= 2; n++ {
		if err := store.RecordBean(ctx, n, "BEAN-00X", "beans/x.md"); err != nil {
			t.Fatalf("RecordBean(%d): %v", n, err)
		}
	}

	manager, err := runstate.NewResumedManager(ctx, store)
	if err != nil {
		t.Fatalf("NewResumedManager: %v", err)
	}
	if manager.ResumedCount() != 2 {
		t.Fatalf("ResumedCount = %d, want 2", manager.ResumedCount())
	}
	if !manager.ShouldSkipBean(1) || !manager.ShouldSkipBean(2) {
		t.Fatal("checkpointed beans should be skipped")
	}
	if manager.ShouldSkipBean(3) {
		t.Fatal("bean 3 was never written; it must not be skipped")
	}

	fresh := runstate.NewManager(store)
	if fresh.ShouldSkipBean(1) {
		t.Fatal("fresh manager must not skip any bean")
	}
}
