// Package queue persists the per-episode pipeline state machine in a
// per-podcast SQLite database, making interrupted runs resumable and keeping
// transcripts available for reassembly without re-transcription.
package queue
