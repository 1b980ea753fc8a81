// Package lifecycle implements the daemon shutdown state machine.
//
// Stopping walks RUNNING -> SIGNALED -> STOPPED: an initial probe makes stop
// idempotent, exactly one termination signal is sent, and exit is confirmed
// by polling on a fixed cadence with a bounded attempt budget. Probe failures
// abort immediately rather than risking an infinite poll against a broken
// supervision setup.
package lifecycle
