// Package config loads, normalizes, and validates harvester configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and merges the built-in scan excludes with
// user overrides. The Config type centralizes every knob the pipeline and
// CLI need: repository locator and output directory, inventory globs,
// detection threshold, optional enrichment credentials, gate policy, and
// log settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
