// Package services defines the shared error taxonomy for the pipeline:
// sentinel markers distinguishing fatal failures (feed, configuration,
// assembly) from per-episode ones (fetch, transcription).
package services
