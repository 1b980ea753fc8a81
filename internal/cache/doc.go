// Package cache provides the TTL-bounded lookaside store sitting in front of
// the directory engine. It is a thin wrapper around Badger with no business
// logic; read-through composition lives in the directory package.
package cache
