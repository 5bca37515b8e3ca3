package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Repo identifies the repository under analysis and where output goes.
type Repo struct {
	Locator   string `toml:"locator"`
	Ref       string `toml:"ref"`
	OutputDir string `toml:"output_dir"`
}

// Scan controls the file inventory collaborator.
type Scan struct {
	IncludeGlobs    []string `toml:"include_globs"`
	ExcludeGlobs    []string `toml:"exclude_globs"`
	MaxFileSize     int64    `toml:"max_file_size"`
	FollowGitIgnore bool     `toml:"follow_gitignore"`
}

// Detection controls stack detector aggregation.
type Detection struct {
	MinConfidence float64 `toml:"min_confidence"`
}

// Enrichment configures the optional LLM enrichment collaborator.
// Enrichment is disabled unless an API key is configured.
type Enrichment struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// Gates controls coverage gate enforcement.
type Gates struct {
	FailOnGaps bool `toml:"fail_on_gaps"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for a harvest run.
//
// Sections by subsystem:
//   - Repo: repository locator, optional ref, output directory
//   - Scan: inventory include/exclude globs and size cutoff
//   - Detection: stack detection confidence threshold
//   - Enrichment: optional LLM enrichment settings
//   - Gates: coverage gate enforcement
//   - Logging: log format and level
type Config struct {
	Repo       Repo       `toml:"repo"`
	Scan       Scan       `toml:"scan"`
	Detection  Detection  `toml:"detection"`
	Enrichment Enrichment `toml:"enrichment"`
	Gates      Gates      `toml:"gates"`
	Logging    Logging    `toml:"logging"`

	// Resume requests bean-granular resume from persisted run state.
	Resume bool `toml:"-"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/harvester/config.toml")
}

// Load locates, parses, and validates a configuration file. Missing files
// fall back to defaults; an explicit path that fails to parse is an error.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := LoadFile(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

// LoadFile parses and normalizes a configuration file without
// validating, for callers that apply CLI overrides before validation.
func LoadFile(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("harvester.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureOutputDir creates the output tree required before Stage E runs.
func (c *Config) EnsureOutputDir() error {
	if strings.TrimSpace(c.Repo.OutputDir) == "" {
		return errors.New("repo.output_dir must be set")
	}
	if err := os.MkdirAll(c.Repo.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", c.Repo.OutputDir, err)
	}
	return nil
}

// EnrichmentEnabled reports whether the LLM enrichment collaborator is
// configured. Absence never blocks bean generation.
func (c *Config) EnrichmentEnabled() bool {
	return strings.TrimSpace(c.Enrichment.APIKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
