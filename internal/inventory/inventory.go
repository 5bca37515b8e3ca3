// Package inventory models the normalized file listing the pipeline
// consumes and provides the scanner that produces it.
package inventory

import (
	"path/filepath"
	"sort"
	"strings"
)

// FileRecord describes one file in the repository snapshot. Path is
// posix-style and relative to the repository root.
type FileRecord struct {
	Path string
	Ext  string
	Size int64
}

// Inventory is the read-only ground truth the pipeline stages consume.
type Inventory struct {
	Root         string
	Files        []FileRecord
	IncludeGlobs []string
	ExcludeGlobs []string
	MaxFileSize  int64

	pathSet map[string]struct{}
}

// New builds an inventory from an already-collected file list. Files are
// sorted by path so two snapshots of identical input are identical.
func New(root string, files []FileRecord, includes, excludes []string, maxFileSize int64) *Inventory {
	sorted := make([]FileRecord, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	pathSet := make(map[string]struct{}, len(sorted))
	for _, f := range sorted {
		pathSet[f.Path] = struct{}{}
	}

	return &Inventory{
		Root:         root,
		Files:        sorted,
		IncludeGlobs: includes,
		ExcludeGlobs: excludes,
		MaxFileSize:  maxFileSize,
		pathSet:      pathSet,
	}
}

// Len returns the number of files in the snapshot.
func (inv *Inventory) Len() int {
	if inv == nil {
		return 0
	}
	return len(inv.Files)
}

// Contains reports whether a relative path exists in the snapshot.
func (inv *Inventory) Contains(path string) bool {
	if inv == nil {
		return false
	}
	_, ok := inv.pathSet[toPosix(path)]
	return ok
}

// WithExt returns records whose extension matches ext (leading dot
// optional), preserving snapshot order.
func (inv *Inventory) WithExt(ext string) []FileRecord {
	if inv == nil {
		return nil
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	var out []FileRecord
	for _, f := range inv.Files {
		if f.Ext == ext {
			out = append(out, f)
		}
	}
	return out
}

// WithBase returns records whose base name matches name exactly,
// preserving snapshot order.
func (inv *Inventory) WithBase(name string) []FileRecord {
	if inv == nil {
		return nil
	}
	var out []FileRecord
	for _, f := range inv.Files {
		if filepath.Base(f.Path) == name {
			out = append(out, f)
		}
	}
	return out
}

func toPosix(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
