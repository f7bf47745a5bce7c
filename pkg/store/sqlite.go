package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the canonical document store implementation.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates/opens the document database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process store. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS documents (
			namespace TEXT NOT NULL,
			doc_key TEXT NOT NULL,
			value BLOB NOT NULL,
			updated_at_ms INTEGER NOT NULL,
			PRIMARY KEY(namespace, doc_key)
		);`,
		`CREATE INDEX IF NOT EXISTS documents_ns_updated_idx ON documents(namespace, updated_at_ms DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT value FROM documents WHERE namespace = ? AND doc_key = ?`, namespace, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents(namespace, doc_key, value, updated_at_ms)
VALUES(?, ?, ?, ?)
ON CONFLICT(namespace, doc_key) DO UPDATE SET
	value = excluded.value,
	updated_at_ms = excluded.updated_at_ms`,
		namespace, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set document %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM documents WHERE namespace = ? AND doc_key = ?`, namespace, key)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, namespace string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT doc_key, value, updated_at_ms
FROM documents
WHERE namespace = ?
ORDER BY updated_at_ms DESC, doc_key`, namespace)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", namespace, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Key, &rec.Value, &rec.UpdatedAtMS); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
