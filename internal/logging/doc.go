// Package logging builds the slog loggers used across the pipeline.
//
// It provides a console handler with a compact "timestamp LEVEL
// component: message k=v" line format, a JSON handler for machine
// consumption, an attribute facade with the standardized field keys, and
// no-op constructors for tests and optional collaborators.
package logging
