package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"dirserve/internal/cache"
	"dirserve/internal/config"
	"dirserve/internal/conn"
	"dirserve/internal/directory"
	"dirserve/internal/logging"
	"dirserve/internal/services"
	"dirserve/internal/watcher"
)

// Daemon coordinates the directory service collaborators and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *directory.Store
	entries *directory.CachedStore
	cache   *cache.Cache
	watcher *watcher.Watcher
	conns   *conn.Manager

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// New constructs a daemon with initialized dependencies. The cache and
// watcher are optional; everything else is required.
func New(cfg *config.Config, store *directory.Store, entries *directory.CachedStore, c *cache.Cache, w *watcher.Watcher, conns *conn.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || entries == nil || conns == nil {
		return nil, errors.New("daemon requires config, store, entry service, and connection manager")
	}

	lockPath := cfg.LockFilePath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    store,
		entries:  entries,
		cache:    c,
		watcher:  w,
		conns:    conns,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Entries exposes the directory surface served over IPC.
func (d *Daemon) Entries() *directory.CachedStore {
	return d.entries
}

// Start acquires the daemon lock and launches the seed watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dirserve daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.watcher != nil {
		if err := d.watcher.Start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start seed watcher: %w", err)
		}
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("dirserve daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background work and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			d.logger.Warn("failed to close seed watcher", logging.Error(err))
		}
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("dirserve daemon stopped")
}

// Close releases all resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Status returns a snapshot for the requested scope. Scopes are "daemon" for
// process state, "directory" for engine state, or "all" for both.
func (d *Daemon) Status(ctx context.Context, scope string) (map[string]any, error) {
	switch scope {
	case "daemon":
		return d.daemonStatus(), nil
	case "directory":
		return d.directoryStatus(ctx)
	case "all":
		snapshot := d.daemonStatus()
		dir, err := d.directoryStatus(ctx)
		if err != nil {
			return nil, err
		}
		for k, v := range dir {
			snapshot[k] = v
		}
		return snapshot, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "daemon", "status",
			fmt.Sprintf("unknown status scope %q", scope), nil)
	}
}

func (d *Daemon) daemonStatus() map[string]any {
	snapshot := map[string]any{
		"running":       d.running.Load(),
		"pid":           os.Getpid(),
		"lock_path":     d.lockPath,
		"socket_path":   d.cfg.SocketPath(),
		"clients":       d.conns.Len(),
		"cache_enabled": d.cache != nil,
	}
	if d.running.Load() {
		snapshot["uptime_seconds"] = int64(time.Since(d.startedAt).Seconds())
	}
	return snapshot
}

func (d *Daemon) directoryStatus(ctx context.Context) (map[string]any, error) {
	count, err := d.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	return map[string]any{
		"db_path": d.store.Path(),
		"entries": count,
	}, nil
}
