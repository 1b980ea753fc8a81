package cache

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"dirserve/internal/services"
)

// Cache is a TTL-bounded lookaside store for directory entry values. Entries
// expire on their own; writes to the engine invalidate eagerly so readers
// never see a stale value longer than one write cycle.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open initializes the cache store in the given directory.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached value for a key and whether it was present.
func (c *Cache) Get(key string) (string, bool, error) {
	var value string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, services.Wrap(services.ErrUnavailable, "cache", "get", fmt.Sprintf("key %q", key), err)
	}
	return value, true, nil
}

// Put stores a value under the configured TTL.
func (c *Cache) Put(key, value string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), []byte(value)).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "cache", "put", fmt.Sprintf("key %q", key), err)
	}
	return nil
}

// Invalidate drops a key. Unknown keys are a no-op.
func (c *Cache) Invalidate(key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "cache", "invalidate", fmt.Sprintf("key %q", key), err)
	}
	return nil
}
