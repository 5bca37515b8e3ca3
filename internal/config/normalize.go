package config

import (
	"sort"
	"strings"
)

// normalize expands paths and merges the default exclude set with user
// overrides. It runs before Validate so validation sees final values.
func (c *Config) normalize() error {
	if c.Repo.OutputDir != "" {
		expanded, err := expandPath(c.Repo.OutputDir)
		if err != nil {
			return err
		}
		c.Repo.OutputDir = expanded
	}

	c.Repo.Locator = strings.TrimSpace(c.Repo.Locator)
	c.Repo.Ref = strings.TrimSpace(c.Repo.Ref)

	c.Scan.ExcludeGlobs = mergeGlobs(defaultExcludeGlobs, c.Scan.ExcludeGlobs)
	if len(c.Scan.IncludeGlobs) == 0 {
		c.Scan.IncludeGlobs = []string{"**"}
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}

func mergeGlobs(defaults, overrides []string) []string {
	seen := make(map[string]struct{}, len(defaults)+len(overrides))
	merged := make([]string, 0, len(defaults)+len(overrides))
	for _, glob := range append(append([]string{}, defaults...), overrides...) {
		trimmed := strings.TrimSpace(glob)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		merged = append(merged, trimmed)
	}
	sort.Strings(merged)
	return merged
}
