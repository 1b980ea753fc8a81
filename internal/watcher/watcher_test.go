package watcher_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dirserve/internal/directory"
	"dirserve/internal/testsupport"
	"dirserve/internal/watcher"
)

func TestWatcherImportsExistingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cached := directory.NewCachedStore(store, nil, nil)

	testsupport.WriteSeedFile(t, filepath.Join(cfg.Paths.SeedDir, "boot.toml"), map[string]string{
		"/svc/a": "1",
		"/svc/b": "2",
	})

	w, err := watcher.New(cfg, cached, nil)
	if err != nil {
		t.Fatalf("watcher.New: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	entry, err := store.Get(ctx, "/svc/a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Value != "1" {
		t.Fatalf("expected 1, got %q", entry.Value)
	}
}

func TestWatcherImportsNewFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cached := directory.NewCachedStore(store, nil, nil)

	w, err := watcher.New(cfg, cached, nil)
	if err != nil {
		t.Fatalf("watcher.New: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	testsupport.WriteSeedFile(t, filepath.Join(cfg.Paths.SeedDir, "late.toml"), map[string]string{
		"/svc/late": "v",
	})

	deadline := time.After(5 * time.Second)
	for {
		entry, err := store.Get(ctx, "/svc/late")
		if err == nil {
			if entry.Value != "v" {
				t.Fatalf("expected v, got %q", entry.Value)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("seed entry never imported: %v", err)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcherSkipsBadEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cached := directory.NewCachedStore(store, nil, nil)

	// Relative path is invalid; the absolute one must still land.
	testsupport.WriteSeedFile(t, filepath.Join(cfg.Paths.SeedDir, "mixed.toml"), map[string]string{
		"relative/path": "bad",
		"/good":         "ok",
	})

	w, err := watcher.New(cfg, cached, nil)
	if err != nil {
		t.Fatalf("watcher.New: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := store.Get(ctx, "/good"); err != nil {
		t.Fatalf("expected valid entry to import: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 entry, got %d", count)
	}
}

func TestWatcherIgnoresNonSeedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cached := directory.NewCachedStore(store, nil, nil)

	testsupport.WriteSeedFile(t, filepath.Join(cfg.Paths.SeedDir, "notes.txt"), map[string]string{
		"/ignored": "x",
	})

	w, err := watcher.New(cfg, cached, nil)
	if err != nil {
		t.Fatalf("watcher.New: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no imports, got %d", count)
	}
}
