// Package directory implements the directory engine: a SQLite-backed store
// mapping absolute slash-separated paths to values.
//
// The Store owns schema and persistence; CachedStore layers the TTL cache on
// top for the read path the dispatcher serves. Missing paths surface as
// services.ErrNotFound so callers can distinguish data conditions from
// engine failures.
package directory
