// Package whisper wraps WhisperX as the pipeline's transcription capability.
//
// The tool is invoked once per episode through uvx; any speech-to-text
// backend can stand in by satisfying the orchestrator's Transcriber
// interface, so orchestration logic never depends on this package's details.
package whisper
