package testsupport

import (
	"context"
	"testing"

	"dirserve/internal/config"
	"dirserve/internal/directory"
)

// MustOpenStore opens a directory.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *directory.Store {
	t.Helper()

	store, err := directory.Open(cfg)
	if err != nil {
		t.Fatalf("directory.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedEntries writes the given path/value pairs into the store.
func SeedEntries(t testing.TB, store *directory.Store, entries map[string]string) {
	t.Helper()

	for path, value := range entries {
		if _, err := store.Set(context.Background(), path, value); err != nil {
			t.Fatalf("store.Set %s: %v", path, err)
		}
	}
}
