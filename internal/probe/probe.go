package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"dirserve/internal/services"
)

// Status is the tri-state outcome of a liveness probe. It is derived fresh on
// every probe and never cached.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
)

// Exit code convention for external probe commands.
const (
	exitCodeRunning    = 0
	exitCodeNotRunning = 100
)

// ErrProbe tags probe facility failures: the check itself failed or returned
// an unrecognized exit code. Callers treat it as fatal rather than retrying.
var ErrProbe = errors.New("probe error")

// Prober reports whether the daemon process named by a PID file is alive.
type Prober interface {
	Probe(ctx context.Context, pidFilePath string) (Status, error)
}

// Signaler delivers a named signal to the daemon process named by a PID file.
type Signaler interface {
	Signal(ctx context.Context, pidFilePath, signal string) error
}

// CommandProber invokes an external status-check command with the PID file
// path as its sole argument. Exit 0 means running, 100 means stopped, and
// anything else is a probe error.
type CommandProber struct {
	Command string
}

func (p CommandProber) Probe(ctx context.Context, pidFilePath string) (Status, error) {
	command := strings.TrimSpace(p.Command)
	if command == "" {
		return StatusError, fmt.Errorf("%w: probe command not configured", ErrProbe)
	}

	err := exec.CommandContext(ctx, command, pidFilePath).Run()
	if err == nil {
		return StatusRunning, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case exitCodeNotRunning:
			return StatusStopped, nil
		default:
			return StatusError, fmt.Errorf("%w: %s exited with unrecognized code %d", ErrProbe, command, exitErr.ExitCode())
		}
	}
	// The command did not run at all. Tag it as an external tool failure on
	// top of the probe marker so callers can classify either way.
	return StatusError, fmt.Errorf("%w: %w", ErrProbe,
		services.Wrap(services.ErrExternalTool, "probe", "run", command, err))
}

// CommandSignaler invokes an external command with the PID file path and the
// signal name.
type CommandSignaler struct {
	Command string
}

func (s CommandSignaler) Signal(ctx context.Context, pidFilePath, signal string) error {
	command := strings.TrimSpace(s.Command)
	if command == "" {
		return errors.New("signal command not configured")
	}
	if err := exec.CommandContext(ctx, command, pidFilePath, signal).Run(); err != nil {
		return services.Wrap(services.ErrExternalTool, "probe", "signal",
			fmt.Sprintf("deliver %s via %s", signal, command), err)
	}
	return nil
}
