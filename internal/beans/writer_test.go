package beans

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"harvester/internal/logging"
	"harvester/internal/runstate"
	"harvester/internal/surface"
	"harvester/internal/testsupport"
)

func sampleCollection() *surface.Collection {
	c := surface.NewCollection()
	// Insertion deliberately out of type order; Ordered() must fix it.
	c.Add(
		surface.Surface{Name: "User", Type: surface.TypeModel, SourceRefs: refs("src/models/user.go")},
		surface.Surface{Name: "GET /users", Type: surface.TypeRoute, SourceRefs: refs("src/routes.js")},
		surface.Surface{Name: "login guard", Type: surface.TypeAuth, SourceRefs: refs("src/auth/guard.js")},
		surface.Surface{Name: "POST /users", Type: surface.TypeRoute, SourceRefs: refs("src/routes.js")},
		surface.Surface{Name: "env keys", Type: surface.TypeConfig, SourceRefs: refs(".env.example")},
	)
	return c
}

func refs(path string) []surface.SourceRef {
	return []surface.SourceRef{{Path: path, StartLine: 1, EndLine: 1}}
}

func TestWriteBeansFreshRun(t *testing.T) {
	outputDir := t.TempDir()
	store := testsupport.MustOpenStore(t, outputDir)
	ctx := context.Background()
	if err := store.Begin(ctx, "run-1", "/tmp/repo"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	w := NewWriter(outputDir, logging.NewNop())
	written, err := w.WriteBeans(ctx, sampleCollection(), runstate.NewManager(store))
	if err != nil {
		t.Fatalf("WriteBeans: %v", err)
	}
	if len(written) != 5 {
		t.Fatalf("wrote %d beans, want 5", len(written))
	}

	// Routes come first in the fixed order, in insertion order.
	wantNames := []string{"GET /users", "POST /users", "User", "login guard", "env keys"}
	for i, bean := range written {
		if bean.Skipped {
			t.Fatalf("bean %d skipped on a fresh run", bean.BeanNumber)
		}
		if bean.BeanNumber != i+1 {
			t.Fatalf("bean %d numbered %d", i, bean.BeanNumber)
		}
		if !strings.HasPrefix(bean.Title, wantNames[i]) {
			t.Fatalf("bean %d title %q, want prefix %q", bean.BeanNumber, bean.Title, wantNames[i])
		}
		if _, err := os.Stat(filepath.Join(outputDir, bean.Path)); err != nil {
			t.Fatalf("bean file %s: %v", bean.Path, err)
		}
	}
	if written[0].BeanID != "BEAN-001" || written[4].BeanID != "BEAN-005" {
		t.Fatalf("bean IDs wrong: %s .. %s", written[0].BeanID, written[4].BeanID)
	}

	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.BeanCountWritten != 5 {
		t.Fatalf("persisted bean count = %d, want 5", state.BeanCountWritten)
	}
}

func TestWriteBeansResumeSkipsCheckpointed(t *testing.T) {
	outputDir := t.TempDir()
	store := testsupport.MustOpenStore(t, outputDir)
	ctx := context.Background()
	if err := store.Begin(ctx, "run-1", "/tmp/repo"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// Simulate an interrupted Stage E that checkpointed beans 1-3.
	for n := 1; n <= 3; n++ {
		if err := store.RecordBean(ctx, n, BeanID(n), BeanPath(n, "x")); err != nil {
			t.Fatalf("RecordBean(%d): %v", n, err)
		}
	}

	manager, err := runstate.NewResumedManager(ctx, store)
	if err != nil {
		t.Fatalf("NewResumedManager: %v", err)
	}
	if manager.ResumedCount() != 3 {
		t.Fatalf("ResumedCount = %d, want 3", manager.ResumedCount())
	}

	w := NewWriter(outputDir, logging.NewNop())
	written, err := w.WriteBeans(ctx, sampleCollection(), manager)
	if err != nil {
		t.Fatalf("WriteBeans: %v", err)
	}
	if len(written) != 5 {
		t.Fatalf("wrote %d records, want 5", len(written))
	}

	for _, bean := range written {
		wantSkip := bean.BeanNumber <= 3
		if bean.Skipped != wantSkip {
			t.Fatalf("bean %d skipped=%v, want %v", bean.BeanNumber, bean.Skipped, wantSkip)
		}
		_, statErr := os.Stat(filepath.Join(outputDir, bean.Path))
		if wantSkip && statErr == nil {
			t.Fatalf("bean %d re-written on resume", bean.BeanNumber)
		}
		if !wantSkip && statErr != nil {
			t.Fatalf("bean %d not written on resume: %v", bean.BeanNumber, statErr)
		}
	}

	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.BeanCountWritten != 5 {
		t.Fatalf("persisted bean count = %d, want 5", state.BeanCountWritten)
	}
}

func TestGenerateIndexListsAllBeans(t *testing.T) {
	outputDir := t.TempDir()
	store := testsupport.MustOpenStore(t, outputDir)
	ctx := context.Background()
	if err := store.Begin(ctx, "run-1", "/tmp/repo"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	w := NewWriter(outputDir, logging.NewNop())
	written, err := w.WriteBeans(ctx, sampleCollection(), runstate.NewManager(store))
	if err != nil {
		t.Fatalf("WriteBeans: %v", err)
	}
	if err := w.GenerateIndex(written); err != nil {
		t.Fatalf("GenerateIndex: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, BeansDir, IndexFileName))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	index := string(data)
	for _, bean := range written {
		if !strings.Contains(index, bean.BeanID) {
			t.Fatalf("index missing %s:\n%s", bean.BeanID, index)
		}
	}
	if !strings.Contains(index, "5 beans.") {
		t.Fatalf("index missing count line:\n%s", index)
	}
}

func TestGenerateTemplatesDir(t *testing.T) {
	outputDir := t.TempDir()
	w := NewWriter(outputDir, logging.NewNop())
	if err := os.MkdirAll(filepath.Join(outputDir, BeansDir), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := w.GenerateTemplatesDir(); err != nil {
		t.Fatalf("GenerateTemplatesDir: %v", err)
	}

	if len(TemplateKeys) != 11 {
		t.Fatalf("TemplateKeys has %d entries, want 11", len(TemplateKeys))
	}
	for _, key := range TemplateKeys {
		path := filepath.Join(outputDir, BeansDir, TemplatesDir, key+".md")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("template %s: %v", key, err)
		}
		if !strings.Contains(string(data), "# Template: "+key) {
			t.Fatalf("template %s missing heading", key)
		}
	}
}
