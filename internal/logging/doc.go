// Package logging builds slog loggers from configuration and provides
// attribute helpers shared across the pipeline.
package logging
