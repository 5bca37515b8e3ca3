// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"harvester/internal/config"
	"harvester/internal/runstate"
)

// NewConfig returns a validated config rooted in temp directories.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	repoDir := t.TempDir()
	cfg := config.Default()
	cfg.Repo.Locator = repoDir
	cfg.Repo.OutputDir = filepath.Join(t.TempDir(), "harvest")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config.Validate: %v", err)
	}
	return &cfg
}

// MustOpenStore opens a runstate.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, outputDir string) *runstate.Store {
	t.Helper()

	store, err := runstate.Open(outputDir)
	if err != nil {
		t.Fatalf("runstate.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// WriteFile creates a file (and parent directories) under root.
func WriteFile(t testing.TB, root, rel, content string) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}
