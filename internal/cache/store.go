package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mpklu/pinyinMate-sub004/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// storeSchemaVersion is the current store schema version. Bump this when the
// schema changes; stale databases are rejected rather than migrated since the
// cache can always be rebuilt from sources.
const storeSchemaVersion = 1

// ErrSchemaMismatch indicates the cache database was written by a different
// schema version. Deleting the database file recovers.
var ErrSchemaMismatch = errors.New("cache schema version mismatch")

// Store persists cache entries in SQLite so they survive restarts. One store
// serves multiple engines; each engine writes under its own namespace.
type Store struct {
	db       *sql.DB
	path     string
	compress bool
	logger   *slog.Logger
}

// StoredEntry is one persisted cache row as returned by Load, with the
// payload already decompressed.
type StoredEntry struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// OpenStore opens or creates the cache database at path. When compress is
// set, payloads written by this store are gzip-compressed; rows written
// either way remain readable because compression is recorded per row.
func OpenStore(path string, compress bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "cache")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, compress: compress, logger: logger}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != storeSchemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, storeSchemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", storeSchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Put writes or replaces one entry.
func (s *Store) Put(ctx context.Context, namespace, key string, payload []byte, createdAt, expiresAt time.Time) error {
	stored := payload
	compressed := 0
	if s.compress {
		packed, err := gzipBytes(payload)
		if err != nil {
			return fmt.Errorf("compress payload: %w", err)
		}
		stored = packed
		compressed = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (namespace, key, payload, compressed, created_at, expires_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(namespace, key) DO UPDATE SET
             payload = excluded.payload,
             compressed = excluded.compressed,
             created_at = excluded.created_at,
             expires_at = excluded.expires_at`,
		namespace, key, stored, compressed,
		createdAt.UTC().Format(time.RFC3339Nano),
		expiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("persist cache entry: %w", err)
	}
	return nil
}

// Delete removes one entry. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE namespace = ? AND key = ?", namespace, key)
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// DeleteNamespace removes every entry under the namespace.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE namespace = ?", namespace)
	if err != nil {
		return fmt.Errorf("clear cache namespace: %w", err)
	}
	return nil
}

// DeleteExpired removes entries in the namespace whose TTL elapsed before
// now, returning how many rows went away.
func (s *Store) DeleteExpired(ctx context.Context, namespace string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE namespace = ? AND expires_at <= ?",
		namespace, now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("delete expired cache entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count expired cache entries: %w", err)
	}
	return affected, nil
}

// Load returns the newest surviving entries in the namespace, capped at
// limit, and removes rows that expired before now. Hydration re-validates
// TTLs so a restart never resurrects stale entries.
func (s *Store) Load(ctx context.Context, namespace string, now time.Time, limit int) ([]StoredEntry, error) {
	if _, err := s.DeleteExpired(ctx, namespace, now); err != nil {
		return nil, err
	}

	query := `SELECT key, payload, compressed, created_at, expires_at
              FROM cache_entries WHERE namespace = ?
              ORDER BY created_at DESC`
	args := []any{namespace}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load cache entries: %w", err)
	}
	defer rows.Close()

	var entries []StoredEntry
	for rows.Next() {
		var (
			entry      StoredEntry
			compressed int
			createdAt  string
			expiresAt  string
		)
		if err := rows.Scan(&entry.Key, &entry.Payload, &compressed, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		if compressed != 0 {
			unpacked, err := gunzipBytes(entry.Payload)
			if err != nil {
				s.logger.Warn("discarding unreadable cache entry",
					logging.String(logging.FieldEventType, "cache_entry_unreadable"),
					logging.String("cache_name", namespace),
					logging.String("cache_key", entry.Key),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "entry will be reloaded from source"),
					logging.String(logging.FieldImpact, "one cached value lost"))
				continue
			}
			entry.Payload = unpacked
		}
		entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse cache created_at: %w", err)
		}
		entry.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("parse cache expires_at: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache entries: %w", err)
	}
	return entries, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
