// Package studiodef loads studio definitions authored as TOML, YAML, or JSON
// files.
//
// Every file is decoded into a generic document, checked against an embedded
// JSON Schema, and only then decoded into a Definition. Mappings and route
// sets are arrays in the file format so their order is explicit.
package studiodef
