// Package config loads, normalizes, and validates hopper configuration data.
//
// It supplies defaults rooted in the XDG base directories, expands user paths
// (tilde shortcuts and $VAR references), reads TOML files, and converts the
// human-facing half-life in days into the seconds the registry works with.
// The resolved file path is kept on the Config so the daemon can watch it.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
