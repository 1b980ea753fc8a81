package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"dirserve/internal/config"
	"dirserve/internal/directory"
	"dirserve/internal/logging"
	"dirserve/internal/services"
)

// EntryWriter is the slice of the directory surface the watcher needs.
type EntryWriter interface {
	Set(ctx context.Context, path, value string) (*directory.Entry, error)
}

// Watcher imports seed documents dropped into the configured seed directory.
// Each document is a TOML file holding entry blocks; creating or rewriting a
// file upserts every entry it contains.
type Watcher struct {
	seedDir string
	store   EntryWriter
	logger  *slog.Logger

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
}

type seedEntry struct {
	Path  string `toml:"path"`
	Value string `toml:"value"`
}

type seedDocument struct {
	Entries []seedEntry `toml:"entry"`
}

// New prepares a watcher over the config's seed directory.
func New(cfg *config.Config, store EntryWriter, logger *slog.Logger) (*Watcher, error) {
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "watcher", "new", "entry writer is required", nil)
	}
	seedDir := cfg.Paths.SeedDir
	if err := os.MkdirAll(seedDir, 0o755); err != nil {
		return nil, fmt.Errorf("create seed dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fsw.Add(seedDir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch seed dir: %w", err)
	}

	return &Watcher{
		seedDir: seedDir,
		store:   store,
		logger:  logging.WithComponent(logger, "watcher"),
		fsw:     fsw,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start imports any seed documents already present, then begins tracking
// filesystem events until the context ends or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.importExisting(ctx); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.eventLoop(ctx)
	w.logger.Info("seed watcher started", logging.String("seed_dir", w.seedDir))
	return nil
}

// Close stops the event loop and releases the filesystem watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopCh)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) importExisting(ctx context.Context) error {
	names, err := os.ReadDir(w.seedDir)
	if err != nil {
		return fmt.Errorf("read seed dir: %w", err)
	}
	for _, entry := range names {
		if entry.IsDir() || !isSeedFile(entry.Name()) {
			continue
		}
		w.importFile(ctx, filepath.Join(w.seedDir, entry.Name()))
	}
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("seed watcher stopped")
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !isSeedFile(event.Name) {
				continue
			}
			w.importFile(ctx, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("seed watcher error", logging.Error(err))
		}
	}
}

// importFile parses one seed document and upserts its entries. Problems with
// individual entries are logged and skipped so one bad block does not block
// the rest of the document.
func (w *Watcher) importFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("read seed file failed",
			logging.String("file", path),
			logging.Error(err))
		return
	}

	var doc seedDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		w.logger.Warn("parse seed file failed",
			logging.String("file", path),
			logging.Error(err))
		return
	}

	imported := 0
	for _, entry := range doc.Entries {
		if _, err := w.store.Set(ctx, entry.Path, entry.Value); err != nil {
			w.logger.Warn("seed entry rejected",
				logging.String("file", path),
				logging.String("path", entry.Path),
				logging.Error(err))
			continue
		}
		imported++
	}
	w.logger.Info("seed file imported",
		logging.String("file", path),
		logging.Int("entries", imported))
}

func isSeedFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".toml")
}
