package probe

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrNoPIDFile indicates the PID file does not exist, which reads as a
// definitively absent daemon.
var ErrNoPIDFile = errors.New("pid file not found")

// ReadPID parses the process id recorded in a PID file.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrNoPIDFile
		}
		return 0, fmt.Errorf("read pid file %q: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(value)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %q contains invalid pid %q", path, value)
	}
	return pid, nil
}

// WritePID records the current process id at the given path.
func WritePID(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
