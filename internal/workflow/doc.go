// Package workflow orchestrates the podcast-to-ebook pipeline: it parses
// the feed, selects an episode range, fetches and transcribes each
// episode sequentially while persisting per-episode state, and assembles
// the chapters into an EPUB. Interrupted runs resume from the persisted
// state without repeating completed downloads or transcriptions.
package workflow
