package inventory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"harvester/internal/config"
)

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
	".tox":         {},
	".mypy_cache":  {},
}

// Scan walks the repository working tree and produces the inventory
// snapshot the pipeline consumes. Results are sorted by path; two scans
// of byte-identical trees yield identical inventories.
func Scan(root string, cfg *config.Config) (*Inventory, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %q is not a directory", root)
	}

	includes := compileGlobs(cfg.Scan.IncludeGlobs)
	excludes := compileGlobs(cfg.Scan.ExcludeGlobs)

	var gi *ignore.GitIgnore
	if cfg.Scan.FollowGitIgnore {
		gi = loadGitignore(root)
	}

	var files []FileRecord
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = toPosix(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excludes != nil && excludes.MatchesPath(rel) {
			return nil
		}
		if includes != nil && !includes.MatchesPath(rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if cfg.Scan.MaxFileSize > 0 && fi.Size() > cfg.Scan.MaxFileSize {
			return nil
		}

		files = append(files, FileRecord{
			Path: rel,
			Ext:  strings.ToLower(filepath.Ext(name)),
			Size: fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}

	return New(root, files, cfg.Scan.IncludeGlobs, cfg.Scan.ExcludeGlobs, cfg.Scan.MaxFileSize), nil
}

// compileGlobs builds a gitignore-style matcher from glob patterns.
// Returns nil when the pattern set matches everything.
func compileGlobs(globs []string) *ignore.GitIgnore {
	var effective []string
	for _, glob := range globs {
		trimmed := strings.TrimSpace(glob)
		if trimmed == "" || trimmed == "**" {
			continue
		}
		effective = append(effective, trimmed)
	}
	if len(effective) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(effective...)
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
