// Package api defines wire-format types and converters for the HTTP API and
// the CLI. It translates studio and routing models into transport-friendly
// DTOs so consumers never depend on storage types.
//
// # Key Types
//
// StudioSummary/Studio: list and detail views of a stored studio, including
// ordered mappings, route sets, and exclusivity groups.
//
// Resolution: the resolved mapping table of a studio together with the trace
// of route set decisions (applied, inactive, suppressed, inert, collisions).
//
// DaemonStatus: runtime information reported by studiod.
//
// # Service
//
// StudioService wraps the studio store and the cached resolver and returns
// DTOs. It also imports studio definitions.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Route set
// behaviors are exposed as lowercase names. Mapping tables are arrays so layer
// order survives any JSON consumer. Timestamps use RFC3339 with milliseconds.
package api
