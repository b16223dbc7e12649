// Package fetch downloads binary resources (episode audio, cover images)
// with bounded exponential-backoff retry and atomic writes.
package fetch
