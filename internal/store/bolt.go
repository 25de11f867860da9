package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltFileName is the database file created inside the data directory.
const BoltFileName = "ogsm.bolt"

var boltBucket = []byte("ogsm")

// Bolt stores each key as one value in a single bbolt bucket.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (or creates) <dataDir>/ogsm.bolt.
func NewBolt(dataDir string) (*Bolt, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dataDir, BoltFileName), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", boltBucket, err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Name() string { return "bolt" }

func (b *Bolt) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v != nil {
			// Values are only valid inside the transaction.
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (b *Bolt) Put(_ context.Context, key string, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), data)
	})
}

func (b *Bolt) Remove(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

func (b *Bolt) Close() error { return b.db.Close() }
