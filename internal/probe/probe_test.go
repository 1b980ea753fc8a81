package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"dirserve/internal/services"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("probe command tests require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "probe.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCommandProberRunning(t *testing.T) {
	prober := CommandProber{Command: writeScript(t, "exit 0")}
	status, err := prober.Probe(context.Background(), "/tmp/whatever.pid")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if status != StatusRunning {
		t.Fatalf("expected running, got %s", status)
	}
}

func TestCommandProberStopped(t *testing.T) {
	prober := CommandProber{Command: writeScript(t, "exit 100")}
	status, err := prober.Probe(context.Background(), "/tmp/whatever.pid")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if status != StatusStopped {
		t.Fatalf("expected stopped, got %s", status)
	}
}

func TestCommandProberUnrecognizedExitCode(t *testing.T) {
	prober := CommandProber{Command: writeScript(t, "exit 3")}
	status, err := prober.Probe(context.Background(), "/tmp/whatever.pid")
	if !errors.Is(err, ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
	if status != StatusError {
		t.Fatalf("expected error status, got %s", status)
	}
}

func TestCommandProberMissingCommand(t *testing.T) {
	prober := CommandProber{}
	if _, err := prober.Probe(context.Background(), "x.pid"); !errors.Is(err, ErrProbe) {
		t.Fatalf("expected ErrProbe for unconfigured command, got %v", err)
	}
}

func TestCommandProberMissingBinary(t *testing.T) {
	prober := CommandProber{Command: filepath.Join(t.TempDir(), "no-such-probe")}
	status, err := prober.Probe(context.Background(), "x.pid")
	if status != StatusError {
		t.Fatalf("expected error status, got %s", status)
	}
	if !errors.Is(err, ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool classification, got %v", err)
	}
}

func TestCommandSignalerMissingBinary(t *testing.T) {
	signaler := CommandSignaler{Command: filepath.Join(t.TempDir(), "no-such-signal")}
	err := signaler.Signal(context.Background(), "x.pid", "TERM")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool classification, got %v", err)
	}
}

func TestCommandSignalerPassesArguments(t *testing.T) {
	dir := t.TempDir()
	captured := filepath.Join(dir, "args")
	script := writeScript(t, `printf '%s %s' "$1" "$2" > `+captured)

	signaler := CommandSignaler{Command: script}
	if err := signaler.Signal(context.Background(), "/run/d.pid", "TERM"); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	data, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("read captured args: %v", err)
	}
	if string(data) != "/run/d.pid TERM" {
		t.Fatalf("unexpected arguments %q", string(data))
	}
}

func TestReadPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.pid")
	if err := os.WriteFile(path, []byte(" 4242 \n"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
	pid, err := ReadPID(path)
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != 4242 {
		t.Fatalf("expected 4242, got %d", pid)
	}
}

func TestReadPIDMissingFile(t *testing.T) {
	if _, err := ReadPID(filepath.Join(t.TempDir(), "absent.pid")); !errors.Is(err, ErrNoPIDFile) {
		t.Fatalf("expected ErrNoPIDFile, got %v", err)
	}
}

func TestReadPIDGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.pid")
	if err := os.WriteFile(path, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
	if _, err := ReadPID(path); err == nil {
		t.Fatal("expected parse error")
	}
}

