// Package daemon coordinates the long-running pinyinMate process.
//
// It wires configuration, the library service, the periodic sync scheduler,
// and the HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon owns the initial catalog load, pushes sync
// summary notifications after scheduled runs, and serves the facade over JSON.
//
// Keep orchestration logic here: catalog, cache, and sync behavior live in
// their respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
