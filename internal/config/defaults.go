package config

const (
	defaultOutputDir          = "./harvest"
	defaultMaxFileSize        = 1 << 20 // 1 MiB
	defaultMinConfidence      = 0.3
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultEnrichBaseURL      = "https://api.openai.com/v1"
	defaultEnrichModel        = "gpt-4.1-mini"
	defaultEnrichRPM          = 20
	defaultEnrichTimeoutSecs  = 60
)

// defaultExcludeGlobs are merged with user excludes during normalization.
var defaultExcludeGlobs = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"dist/**",
	"build/**",
	"__pycache__/**",
	".venv/**",
	"*.min.js",
	"*.lock",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Repo: Repo{
			OutputDir: defaultOutputDir,
		},
		Scan: Scan{
			IncludeGlobs:    []string{"**"},
			MaxFileSize:     defaultMaxFileSize,
			FollowGitIgnore: true,
		},
		Detection: Detection{
			MinConfidence: defaultMinConfidence,
		},
		Enrichment: Enrichment{
			BaseURL:           defaultEnrichBaseURL,
			Model:             defaultEnrichModel,
			RequestsPerMinute: defaultEnrichRPM,
			TimeoutSeconds:    defaultEnrichTimeoutSecs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultExcludeGlobs returns a copy of the built-in exclude set.
func DefaultExcludeGlobs() []string {
	out := make([]string, len(defaultExcludeGlobs))
	copy(out, defaultExcludeGlobs)
	return out
}
