// Package feed parses podcast RSS/Atom feeds into episode descriptors and
// selects the chronological slice the pipeline will process.
package feed
