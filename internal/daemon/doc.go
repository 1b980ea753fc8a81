// Package daemon coordinates the long-running dirserve process.
//
// It wires configuration, the directory engine, the entry cache, the seed
// watcher, and the connection registry into a single lifecycle with
// flock-based locking to prevent multiple instances. The daemon also answers
// status requests arriving over IPC.
//
// Keep orchestration logic here: directory semantics live in their own
// packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
