// Package main hosts the podbook CLI.
//
// The Cobra command tree resolves configuration once per invocation and
// keeps subcommands thin: build runs the full feed-to-EPUB pipeline,
// status reads the persisted per-episode state, and config scaffolds or
// prints the TOML configuration. The heavy lifting lives in the internal
// packages; this package only wires flags, output, and exit codes.
package main
