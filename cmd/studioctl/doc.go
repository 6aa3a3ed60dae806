// Package main hosts the studioctl CLI entrypoint and command graph.
//
// Most commands open the studio store directly, so studios can be imported,
// inspected, and switched whether or not studiod is running. The status
// command talks to the daemon over its HTTP API.
//
// Keep this package lean: routing rules live in internal/routing and
// persistence in internal/studio; commands here only parse flags and render.
package main
