// Package config loads, normalizes, and validates studiorouter configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STUDIOROUTER_API_TOKEN. The Config type gathers every knob the daemon and
// CLI need: where the studio database and logs live, where studio definition
// files are seeded from, and how the HTTP API is exposed.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
