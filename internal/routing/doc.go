// Package routing resolves a studio's route sets into the effective layer
// mapping table consumed by playout.
//
// Resolution runs in two stages. SelectActiveRoutes projects the configured
// route sets into the routes that apply right now, honouring exclusivity
// groups on a first-active-wins basis. RewriteMappings then applies those
// routes to the base mappings: routed layers are rewritten to their output
// layers with any remapping merged on top, and every unrouted layer passes
// through unchanged.
//
// Both stages are pure. Nothing here holds state, performs I/O, or mutates
// its inputs, so callers may resolve concurrently and re-resolve whenever
// configuration changes. Malformed routes are ignored rather than reported;
// use RouteSets.Validate at edit time and Explain to see why a table came
// out the way it did.
package routing
