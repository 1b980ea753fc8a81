//go:build unix

package probe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var signalsByName = map[string]unix.Signal{
	"TERM": unix.SIGTERM,
	"INT":  unix.SIGINT,
	"HUP":  unix.SIGHUP,
	"QUIT": unix.SIGQUIT,
	"KILL": unix.SIGKILL,
}

// KillProber is the built-in probe used when no external probe command is
// configured. It sends signal 0 to the recorded PID. A missing PID file reads
// as a stopped daemon, not an error.
type KillProber struct{}

func (KillProber) Probe(_ context.Context, pidFilePath string) (Status, error) {
	pid, err := ReadPID(pidFilePath)
	if err != nil {
		if errors.Is(err, ErrNoPIDFile) {
			return StatusStopped, nil
		}
		return StatusError, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	err = unix.Kill(pid, 0)
	switch {
	case err == nil:
		return StatusRunning, nil
	case errors.Is(err, unix.ESRCH):
		return StatusStopped, nil
	case errors.Is(err, unix.EPERM):
		// Process exists but belongs to another user.
		return StatusRunning, nil
	default:
		return StatusError, fmt.Errorf("%w: kill(%d, 0): %v", ErrProbe, pid, err)
	}
}

// KillSignaler is the built-in signal delivery used when no external signal
// command is configured.
type KillSignaler struct{}

func (KillSignaler) Signal(_ context.Context, pidFilePath, signal string) error {
	sig, ok := signalsByName[signal]
	if !ok {
		return fmt.Errorf("unsupported signal %q", signal)
	}
	pid, err := ReadPID(pidFilePath)
	if err != nil {
		return err
	}
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("deliver SIG%s to pid %d: %w", signal, pid, err)
	}
	return nil
}
