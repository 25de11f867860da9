// Package store implements the durable key-value persistence surface. Each
// entity kind owns one versioned key holding a JSON array of entities.
//
// Reads are tolerant: a missing key or a payload that does not parse yields
// an empty collection and a log entry. Writes are strict: serialization
// failures, quota overruns and backend errors are reported to the caller
// wrapped in types.ErrStorageFailure.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/ogsm/internal/logging"
	"github.com/mesh-intelligence/ogsm/internal/metrics"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Backend is the raw persistence port. Implementations must be safe for
// concurrent use. Get reports ok=false for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
	Name() string
}

// Durable wraps a Backend with JSON encoding, tolerant reads, an optional
// byte quota, and one mutex per key for read-modify-write cycles.
type Durable struct {
	backend Backend
	log     zerolog.Logger
	metrics *metrics.Metrics
	quota   int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	sizesMu sync.Mutex
	sizes   map[string]int
	primed  bool
}

// Option configures a Durable.
type Option func(*Durable)

// WithQuota caps the total payload bytes across all known keys. Zero means
// unlimited.
func WithQuota(bytes int) Option {
	return func(d *Durable) { d.quota = bytes }
}

// WithLogger overrides the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Durable) { d.log = log }
}

// WithMetrics records store operations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Durable) { d.metrics = m }
}

// New wraps backend.
func New(backend Backend, opts ...Option) *Durable {
	d := &Durable{
		backend: backend,
		log:     logging.WithComponent("store"),
		locks:   make(map[string]*sync.Mutex),
		sizes:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With().Str("driver", backend.Name()).Logger()
	return d
}

// Backend returns the wrapped backend.
func (d *Durable) Backend() Backend { return d.backend }

// Close closes the backend.
func (d *Durable) Close() error { return d.backend.Close() }

// Locker returns the mutex owning key. Callers performing a
// read-modify-write cycle on key must hold it for the whole cycle.
func (d *Durable) Locker(key string) sync.Locker {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	mu, ok := d.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		d.locks[key] = mu
	}
	return mu
}

func (d *Durable) readRaw(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := d.backend.Get(ctx, key)
	d.metrics.StoreOp(d.backend.Name(), "get", err)
	if err != nil {
		return nil, false, fmt.Errorf("%w: read %s: %w", types.ErrStorageFailure, key, err)
	}
	return data, ok, nil
}

// Read decodes the array stored under key. A missing key or a corrupt
// payload yields an empty slice and no error; only a backend failure is
// returned, so a caller never mistakes an unreachable medium for "no data".
func Read[T any](ctx context.Context, d *Durable, key string) ([]T, error) {
	data, ok, err := d.readRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || len(data) == 0 {
		d.log.Debug().Str("key", key).Msg("key not present, treating as empty")
		d.recordSize(key, 0)
		return []T{}, nil
	}
	d.recordSize(key, len(data))
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		d.log.Warn().Str("key", key).Err(err).Msg("unparsable payload, treating as empty")
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Write encodes items and stores them under key, replacing the prior array.
func Write[T any](ctx context.Context, d *Durable, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", types.ErrStorageFailure, key, err)
	}
	if err := d.checkQuota(ctx, key, len(data)); err != nil {
		return err
	}
	err = d.backend.Put(ctx, key, data)
	d.metrics.StoreOp(d.backend.Name(), "put", err)
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", types.ErrStorageFailure, key, err)
	}
	d.recordSize(key, len(data))
	return nil
}

// Clear removes every known entity key. It is meant for administrative
// tooling; repositories never call it.
func (d *Durable) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range types.StorageKeys() {
		mu := d.Locker(key)
		mu.Lock()
		err := d.backend.Remove(ctx, key)
		mu.Unlock()
		d.metrics.StoreOp(d.backend.Name(), "remove", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
			continue
		}
		d.recordSize(key, 0)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: clear: %w", types.ErrStorageFailure, errors.Join(errs...))
	}
	d.log.Info().Msg("cleared all entity keys")
	return nil
}

// IsEmpty reports whether no known key holds any entity.
func (d *Durable) IsEmpty(ctx context.Context) (bool, error) {
	for _, key := range types.StorageKeys() {
		items, err := Read[json.RawMessage](ctx, d, key)
		if err != nil {
			return false, err
		}
		if len(items) > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (d *Durable) recordSize(key string, n int) {
	d.sizesMu.Lock()
	d.sizes[key] = n
	d.sizesMu.Unlock()
}

// checkQuota rejects a write that would push the total payload past the
// quota. Sizes of keys not yet touched are primed once from the backend.
func (d *Durable) checkQuota(ctx context.Context, key string, n int) error {
	if d.quota <= 0 {
		return nil
	}
	if err := d.prime(ctx); err != nil {
		return err
	}
	d.sizesMu.Lock()
	total := n
	for k, size := range d.sizes {
		if k != key {
			total += size
		}
	}
	d.sizesMu.Unlock()
	if total > d.quota {
		return fmt.Errorf("%w: %w: %s needs %d bytes, total %d exceeds %d",
			types.ErrStorageFailure, types.ErrQuotaExceeded, key, n, total, d.quota)
	}
	return nil
}

func (d *Durable) prime(ctx context.Context) error {
	d.sizesMu.Lock()
	primed := d.primed
	d.sizesMu.Unlock()
	if primed {
		return nil
	}
	for _, key := range types.StorageKeys() {
		data, _, err := d.readRaw(ctx, key)
		if err != nil {
			return err
		}
		d.recordSize(key, len(data))
	}
	d.sizesMu.Lock()
	d.primed = true
	d.sizesMu.Unlock()
	return nil
}
