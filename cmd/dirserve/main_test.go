package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dirserve/internal/config"
	"dirserve/internal/conn"
	"dirserve/internal/daemon"
	"dirserve/internal/directory"
	"dirserve/internal/dispatch"
	"dirserve/internal/ipc"
	"dirserve/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *directory.Store
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	cached := directory.NewCachedStore(store, nil, nil)
	conns := conn.NewManager()

	d, err := daemon.New(cfg, store, cached, nil, nil, conns, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	dispatcher, err := dispatch.New(dispatch.Services{
		Conns:   conns,
		Entries: cached,
		Status:  d,
	}, nil)
	if err != nil {
		t.Fatalf("dispatch.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socketPath, dispatcher, conns, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLISetGetDel(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"set", "/x/y", "v"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(stdout, "/x/y = v") {
		t.Fatalf("unexpected set output %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"get", "/x/y"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(stdout) != "v" {
		t.Fatalf("unexpected get output %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"del", "/x/y"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("del: %v", err)
	}
	if !strings.Contains(stdout, "Removed /x/y") {
		t.Fatalf("unexpected del output %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"del", "/x/y"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("del again: %v", err)
	}
	if !strings.Contains(stdout, "No entry at /x/y") {
		t.Fatalf("unexpected repeat del output %q", stdout)
	}
}

func TestCLIList(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedEntries(t, env.store, map[string]string{
		"/svc/a": "1",
		"/svc/b": "2",
	})

	stdout, _, err := runCLI(t, []string{"list", "/svc"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(stdout, "/svc/a") || !strings.Contains(stdout, "/svc/b") {
		t.Fatalf("expected both entries in output, got %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"list", "/empty"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if !strings.Contains(stdout, "No entries under /empty") {
		t.Fatalf("unexpected empty list output %q", stdout)
	}
}

func TestCLIStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "dirserved: running") {
		t.Fatalf("expected running daemon in output, got %q", stdout)
	}
}

func TestCLIStatusOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"status"}, cfg.SocketPath(), configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(stdout, "dirserved: not running") {
		t.Fatalf("expected offline status, got %q", stdout)
	}
}

func TestCLIGetMissingEntryFails(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"get", "/absent"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing entry")
	}
}

func TestCLIConfigInit(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("unexpected output %q", stdout)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config on disk: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected error without --overwrite")
	}
}
