// Package daemon coordinates the long-running studiod process.
//
// It wires configuration, the studio store, and the routing resolver into a
// single lifecycle with flock-based locking to prevent multiple instances.
// On start it optionally seeds studios from the definitions directory and
// then serves the HTTP JSON API until its context is cancelled.
//
// Keep orchestration logic here: routing rules belong to internal/routing and
// persistence to internal/studio.
package daemon
