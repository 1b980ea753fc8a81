package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"dirserve/internal/config"
	"dirserve/internal/directory"
	"dirserve/internal/ipc"
	"dirserve/internal/lifecycle"
	"dirserve/internal/probe"
)

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
}

// StartState describes the outcome of a start orchestration.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// Launch starts a detached dirserve daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon if its socket is unreachable and reports
// the resulting state.
func EnsureStarted(ctx context.Context, socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(socketPath)
	launched := false
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	result := StartResult{Launched: launched}
	snapshot, statusErr := client.Status(ctx, "daemon")
	if statusErr == nil {
		if pid, ok := snapshot["pid"].(float64); ok {
			result.PID = int(pid)
		}
		if running, _ := snapshot["running"].(bool); running && !launched {
			result.State = StartStateAlreadyRunning
			return result, nil
		}
	}
	result.State = StartStateStarted
	return result, nil
}

// StopController builds the shutdown state machine from configuration. When
// no external probe or signal commands are configured, the built-in kill(2)
// implementations are used.
func StopController(cfg *config.Config, logger *slog.Logger) (*lifecycle.Controller, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}

	var prober probe.Prober = probe.KillProber{}
	if command := strings.TrimSpace(cfg.Daemon.ProbeCommand); command != "" {
		prober = probe.CommandProber{Command: command}
	}
	var signaler probe.Signaler = probe.KillSignaler{}
	if command := strings.TrimSpace(cfg.Daemon.SignalCommand); command != "" {
		signaler = probe.CommandSignaler{Command: command}
	}

	return lifecycle.New(prober, signaler, logger, lifecycle.Options{
		PIDFilePath:  cfg.PIDFilePath(),
		StopSignal:   cfg.Daemon.StopSignal,
		PollInterval: cfg.StopPollInterval(),
		MaxAttempts:  cfg.Daemon.StopMaxAttempts,
	})
}

// Stop runs the shutdown sequence against the configured daemon and cleans
// up the socket file once the process confirms stopped.
func Stop(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	controller, err := StopController(cfg, logger)
	if err != nil {
		return err
	}
	if err := controller.Stop(ctx); err != nil {
		return err
	}
	_ = os.Remove(cfg.SocketPath())
	return nil
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Start      StartResult
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(ctx context.Context, cfg *config.Config, executablePath string, opts LaunchOptions, startWaitTimeout time.Duration, logger *slog.Logger) (RestartResult, error) {
	_, statErr := os.Stat(cfg.SocketPath())
	wasRunning := statErr == nil
	if err := Stop(ctx, cfg, logger); err != nil {
		return RestartResult{}, err
	}

	startResult, err := EnsureStarted(ctx, cfg.SocketPath(), executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: wasRunning,
		Start:      startResult,
	}, nil
}

// StatusSnapshot collects daemon status over IPC with an offline fallback
// that reads the directory engine directly.
func StatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config, scope string) (map[string]any, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		snapshot, statusErr := client.Status(ctx, scope)
		if statusErr == nil {
			return snapshot, nil
		}
	} else if !isDaemonUnavailable(err) {
		return nil, err
	}

	snapshot := map[string]any{
		"running":     false,
		"socket_path": socketPath,
	}
	if scope == "daemon" {
		return snapshot, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	store, openErr := directory.Open(cfg)
	if openErr != nil {
		return snapshot, nil
	}
	defer store.Close()
	if count, countErr := store.Count(queryCtx); countErr == nil {
		snapshot["entries"] = count
		snapshot["db_path"] = store.Path()
	}
	return snapshot, nil
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
