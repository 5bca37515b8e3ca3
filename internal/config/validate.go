package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Validation runs before any
// pipeline stage so a bad config never partially applies a run.
func (c *Config) Validate() error {
	if err := c.validateRepo(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRepo() error {
	if c.Repo.Locator == "" {
		return errors.New("repo.locator must be set (local path or git URL)")
	}
	if c.Repo.OutputDir == "" {
		return errors.New("repo.output_dir must be set")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.MaxFileSize <= 0 {
		return errors.New("scan.max_file_size must be positive")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.MinConfidence <= 0 || c.Detection.MinConfidence > 1 {
		return errors.New("detection.min_confidence must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if !c.EnrichmentEnabled() {
		return nil
	}
	if c.Enrichment.RequestsPerMinute <= 0 {
		return errors.New("enrichment.requests_per_minute must be positive when enrichment is enabled")
	}
	if c.Enrichment.TimeoutSeconds <= 0 {
		return errors.New("enrichment.timeout_seconds must be positive when enrichment is enabled")
	}
	if c.Enrichment.BaseURL == "" {
		return errors.New("enrichment.base_url must be set when enrichment is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
