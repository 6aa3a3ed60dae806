package studio

import "errors"

var (
	// ErrNotFound is returned when a studio does not exist.
	ErrNotFound = errors.New("studio not found")
	// ErrExists is returned by Create when the studio ID is taken.
	ErrExists = errors.New("studio already exists")
	// ErrRouteSetNotFound is returned when a route set does not exist in the studio.
	ErrRouteSetNotFound = errors.New("route set not found")
	// ErrActivateOnly is returned when deactivating an activate-only route set
	// without force.
	ErrActivateOnly = errors.New("route set can only be activated")
	// ErrInvalid wraps validation failures of studio content.
	ErrInvalid = errors.New("invalid studio")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
