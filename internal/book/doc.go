// Package book defines the assembled document model: podcast metadata,
// ordered chapters, and the page projections (spine order, table of
// contents) that the EPUB writer consumes.
package book
