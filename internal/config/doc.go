// Package config loads, normalizes, and validates clipstudio configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPSTUDIO_TOKEN. The Config type centralizes every knob the CLI and the
// wizard library need: backend endpoints, trim limits, debounce timing, the
// regenerate quota, and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
