// Package config loads, normalizes, and validates podbook's TOML
// configuration.
package config
