package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"dirserve/internal/cache"
	"dirserve/internal/config"
	"dirserve/internal/conn"
	"dirserve/internal/daemon"
	"dirserve/internal/directory"
	"dirserve/internal/dispatch"
	"dirserve/internal/ipc"
	"dirserve/internal/logging"
	"dirserve/internal/probe"
	"dirserve/internal/watcher"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run assembles and starts the dirserve daemon runtime loop, blocking until
// the context is canceled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", filepath.Join(cfg.Paths.LogDir, "dirserved.log")},
		ErrorOutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "dirserved.log")},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := cfg.PIDFilePath()
	if err := probe.WritePID(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := directory.Open(cfg)
	if err != nil {
		logger.Error("open directory store", logging.Error(err))
		return err
	}

	var entryCache *cache.Cache
	if cfg.Cache.Enabled {
		entryCache, err = cache.Open(cfg.CacheDir(), cfg.CacheTTL())
		if err != nil {
			logger.Warn("entry cache unavailable, continuing without it",
				logging.Error(err),
				logging.String(logging.FieldImpact, "every read hits the engine"))
			entryCache = nil
		}
	}
	entries := directory.NewCachedStore(store, entryCache, logger)

	var seedWatcher *watcher.Watcher
	if cfg.Watcher.Enabled {
		seedWatcher, err = watcher.New(cfg, entries, logger)
		if err != nil {
			logger.Warn("seed watcher unavailable, continuing without it",
				logging.Error(err),
				logging.String(logging.FieldImpact, "seed documents will not be imported"))
			seedWatcher = nil
		}
	}

	conns := conn.NewManager()
	d, err := daemon.New(cfg, store, entries, entryCache, seedWatcher, conns, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	dispatcher, err := dispatch.New(dispatch.Services{
		Conns:   conns,
		Entries: entries,
		Status:  d,
	}, logger)
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), dispatcher, conns, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check for another running instance and data directory access"))
		return err
	}

	<-signalCtx.Done()
	logger.Info("dirserve daemon shutting down")
	return nil
}
