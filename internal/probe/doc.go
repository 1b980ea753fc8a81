// Package probe answers one question: is the daemon process named by a PID
// file alive?
//
// Probes are non-destructive and derive a fresh tri-state status on every
// call. The external-command implementations follow the exit code convention
// (0 running, 100 stopped, anything else a probe error); the built-in kill(2)
// implementations cover installs without supervision scripts. Signal delivery
// lives here too, since it shares the PID file plumbing.
package probe
