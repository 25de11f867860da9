package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS ogsm_kv (
	key TEXT PRIMARY KEY,
	payload BYTEA NOT NULL
)`

// Postgres stores each key as one row holding the encoded payload bytes.
// BYTEA keeps payloads that JSONB would reject, such as a \u0000 escape.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects with dsn and ensures the kv table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure kv table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM ogsm_kv WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, true, nil
}

func (p *Postgres) Put(ctx context.Context, key string, data []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO ogsm_kv (key, payload) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload`, key, data)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM ogsm_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }
