package directory

import (
	"context"
	"log/slog"

	"dirserve/internal/cache"
	"dirserve/internal/logging"
	"dirserve/internal/services"
)

// CachedStore layers the lookaside cache over the engine. Cache trouble never
// fails a request; it degrades to an engine read with a warning.
type CachedStore struct {
	store  *Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewCachedStore composes the engine with an optional cache. A nil cache
// yields straight pass-through behavior.
func NewCachedStore(store *Store, c *cache.Cache, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		store:  store,
		cache:  c,
		logger: logging.WithComponent(logger, "directory"),
	}
}

// Get resolves a path, consulting the cache first.
func (c *CachedStore) Get(ctx context.Context, entryPath string) (*Entry, error) {
	normalized, err := NormalizePath(entryPath)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		value, hit, cacheErr := c.cache.Get(normalized)
		if cacheErr != nil {
			c.degraded(cacheErr, "cache read failed, falling back to engine",
				logging.String("path", normalized))
		} else if hit {
			return &Entry{Path: normalized, Value: value}, nil
		}
	}

	entry, err := c.store.Get(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if cacheErr := c.cache.Put(normalized, entry.Value); cacheErr != nil {
			c.degraded(cacheErr, "cache fill failed", logging.String("path", normalized))
		}
	}
	return entry, nil
}

// Set writes through to the engine and refreshes the cache.
func (c *CachedStore) Set(ctx context.Context, entryPath, value string) (*Entry, error) {
	entry, err := c.store.Set(ctx, entryPath, value)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if cacheErr := c.cache.Put(entry.Path, entry.Value); cacheErr != nil {
			c.degraded(cacheErr, "cache refresh failed", logging.String("path", entry.Path))
		}
	}
	return entry, nil
}

// Delete removes the entry and invalidates its cache slot.
func (c *CachedStore) Delete(ctx context.Context, entryPath string) (bool, error) {
	removed, err := c.store.Delete(ctx, entryPath)
	if err != nil {
		return false, err
	}
	if c.cache != nil {
		normalized, normErr := NormalizePath(entryPath)
		if normErr == nil {
			if cacheErr := c.cache.Invalidate(normalized); cacheErr != nil {
				c.degraded(cacheErr, "cache invalidate failed", logging.String("path", normalized))
			}
		}
	}
	return removed, nil
}

// Invalidate drops a cache slot without touching the engine. Used by the seed
// watcher after bulk imports.
func (c *CachedStore) Invalidate(entryPath string) {
	if c.cache == nil {
		return
	}
	normalized, err := NormalizePath(entryPath)
	if err != nil {
		return
	}
	if cacheErr := c.cache.Invalidate(normalized); cacheErr != nil {
		c.degraded(cacheErr, "cache invalidate failed", logging.String("path", normalized))
	}
}

// degraded logs a cache failure. Failures that will not clear up on the next
// request are promoted to error level; transient ones stay at warn.
func (c *CachedStore) degraded(err error, msg string, args ...any) {
	args = append(args, logging.Error(err))
	if services.Retryable(err) {
		c.logger.Warn(msg, args...)
		return
	}
	c.logger.Error(msg, args...)
}

// List proxies to the engine; listings bypass the cache.
func (c *CachedStore) List(ctx context.Context, prefix string) ([]*Entry, error) {
	return c.store.List(ctx, prefix)
}

// Count proxies to the engine.
func (c *CachedStore) Count(ctx context.Context) (int64, error) {
	return c.store.Count(ctx)
}
