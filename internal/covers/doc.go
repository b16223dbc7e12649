// Package covers downloads podcast cover art and normalizes it to a
// JPEG suitable for embedding as an e-book cover.
package covers
