package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dirserve/internal/config"
	"dirserve/internal/services"
)

// Entry is one directory record: an absolute slash-separated path mapped to a
// value.
type Entry struct {
	Path      string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store manages directory persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the directory database and applies the
// schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Get retrieves the entry at the given path. A missing path yields
// services.ErrNotFound.
func (s *Store) Get(ctx context.Context, entryPath string) (*Entry, error) {
	normalized, err := NormalizePath(entryPath)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT path, value, created_at, updated_at FROM entries WHERE path = ?`,
		normalized,
	)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "directory", "get", normalized, nil)
		}
		return nil, fmt.Errorf("query entry %q: %w", normalized, err)
	}
	return entry, nil
}

// Set inserts or updates the entry at the given path and returns the stored
// record.
func (s *Store) Set(ctx context.Context, entryPath, value string) (*Entry, error) {
	normalized, err := NormalizePath(entryPath)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (path, value, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		normalized, value, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert entry %q: %w", normalized, err)
	}
	return s.Get(ctx, normalized)
}

// Delete removes the entry at the given path. It reports whether an entry was
// actually removed.
func (s *Store) Delete(ctx context.Context, entryPath string) (bool, error) {
	normalized, err := NormalizePath(entryPath)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE path = ?`, normalized)
	if err != nil {
		return false, fmt.Errorf("delete entry %q: %w", normalized, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns entries whose paths start with the given prefix, ordered by
// path. An empty or "/" prefix lists everything.
func (s *Store) List(ctx context.Context, prefix string) ([]*Entry, error) {
	normalized := "/"
	if strings.TrimSpace(prefix) != "" {
		var err error
		normalized, err = NormalizePath(prefix)
		if err != nil {
			return nil, err
		}
	}

	pattern := normalized
	if !strings.HasSuffix(pattern, "/") {
		pattern += "/"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, value, created_at, updated_at FROM entries
         WHERE path = ? OR path LIKE ? ESCAPE '\'
         ORDER BY path`,
		normalized, escapeLike(pattern)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("list entries %q: %w", normalized, err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Count returns the total number of entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// NormalizePath validates and canonicalizes a directory path: absolute,
// slash-separated, no trailing slash except the root.
func NormalizePath(entryPath string) (string, error) {
	trimmed := strings.TrimSpace(entryPath)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "directory", "path", "path is required", nil)
	}
	if !strings.HasPrefix(trimmed, "/") {
		return "", services.Wrap(services.ErrValidation, "directory", "path", fmt.Sprintf("path %q must be absolute", trimmed), nil)
	}
	cleaned := path.Clean(trimmed)
	return cleaned, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var entry Entry
	var createdAt, updatedAt string
	if err := row.Scan(&entry.Path, &entry.Value, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &entry, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
