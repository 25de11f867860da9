package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteFileName is the database file created inside the data directory.
const SQLiteFileName = "ogsm.db"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

// SQLite stores each key as one row of a kv table.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) <dataDir>/ogsm.db.
func NewSQLite(dataDir string) (*SQLite, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, SQLiteFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps writes serialized and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM kv WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`, key, data)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
