// Package repo implements the entity repositories. Each repository owns one
// storage key and exposes list, get, get-many, create, update and delete
// calls that wait a configured latency before touching the store.
//
// Unknown ids are soft misses: Get and Update return nil, Delete returns
// false, GetMany omits them. Failures are reported as *types.OpError.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/ogsm/internal/logging"
	"github.com/mesh-intelligence/ogsm/internal/metrics"
	"github.com/mesh-intelligence/ogsm/internal/store"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Options tune every repository in a Set.
type Options struct {
	// Latency is the simulated round-trip applied before each call.
	Latency time.Duration
	// Now returns the current time. Defaults to time.Now in UTC.
	Now func() time.Time
	// NewID returns a fresh entity id. Defaults to UUID v7.
	NewID   func() string
	Metrics *metrics.Metrics
	Logger  *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.NewID == nil {
		o.NewID = generateUUID
	}
	return o
}

// generateUUID returns a time-ordered UUID v7, falling back to v4.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// validator is implemented by every create and update input.
type validator interface {
	Validate() error
}

// table is the shared implementation behind each repository. T is the
// entity, In its create input and U its partial update.
type table[T types.Entity, In, U validator] struct {
	kind types.Kind
	key  string
	d    *store.Durable
	opts Options
	log  zerolog.Logger

	build func(types.Stamp, In) T
	apply func(T, U) T
	stamp func(T) types.Stamp
	touch func(T, time.Time) T
}

func newTable[T types.Entity, In, U validator](
	kind types.Kind,
	d *store.Durable,
	opts Options,
	build func(types.Stamp, In) T,
	apply func(T, U) T,
	stamp func(T) types.Stamp,
	touch func(T, time.Time) T,
) *table[T, In, U] {
	log := logging.WithComponent("repo")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &table[T, In, U]{
		kind:  kind,
		key:   types.StorageKey(kind),
		d:     d,
		opts:  opts,
		log:   log.With().Str("kind", string(kind)).Logger(),
		build: build,
		apply: apply,
		stamp: stamp,
		touch: touch,
	}
}

// Kind returns the entity kind the repository serves.
func (t *table[T, In, U]) Kind() types.Kind { return t.kind }

func (t *table[T, In, U]) fail(op string, err error) error {
	t.log.Debug().Str("op", op).Err(err).Msg("repository call failed")
	return &types.OpError{Op: op, Kind: t.kind, Err: err}
}

// wait blocks for the configured latency or until ctx is done.
func (t *table[T, In, U]) wait(ctx context.Context) error {
	if t.opts.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.opts.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// List returns every entity in storage order.
func (t *table[T, In, U]) List(ctx context.Context) ([]T, error) {
	defer t.opts.Metrics.ObserveRepo(string(t.kind), "list", time.Now())
	if err := t.wait(ctx); err != nil {
		return nil, t.fail(types.OpFetch, err)
	}
	items, err := store.Read[T](ctx, t.d, t.key)
	if err != nil {
		return nil, t.fail(types.OpFetch, err)
	}
	return items, nil
}

// Get returns the entity with id, or nil when none exists.
func (t *table[T, In, U]) Get(ctx context.Context, id string) (*T, error) {
	defer t.opts.Metrics.ObserveRepo(string(t.kind), "get", time.Now())
	if err := t.wait(ctx); err != nil {
		return nil, t.fail(types.OpFetch, err)
	}
	items, err := store.Read[T](ctx, t.d, t.key)
	if err != nil {
		return nil, t.fail(types.OpFetch, err)
	}
	for i := range items {
		if items[i].EntityID() == id {
			found := items[i]
			return &found, nil
		}
	}
	return nil, nil
}

// GetMany returns the entities whose ids appear in ids. Results keep
// storage order; unknown ids are omitted.
func (t *table[T, In, U]) GetMany(ctx context.Context, ids []string) ([]T, error) {
	defer t.opts.Metrics.ObserveRepo(string(t.kind), "get_many", time.Now())
	if err := t.wait(ctx); err != nil {
		return nil, t.fail(types.OpFetch, err)
	}
	items, err := store.Read[T](ctx, t.d, t.key)
	if err != nil {
		return nil, t.fail(types.OpFetch, err)
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]T, 0, len(ids))
	for _, it := range items {
		if _, ok := want[it.EntityID()]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

// Create appends a new entity with a fresh id and matching timestamps.
func (t *table[T, In, U]) Create(ctx context.Context, in In) (T, error) {
	defer t.opts.Metrics.ObserveRepo(string(t.kind), "create", time.Now())
	var zero T
	if err := t.wait(ctx); err != nil {
		return zero, t.fail(types.OpCreate, err)
	}
	if err := in.Validate(); err != nil {
		return zero, t.fail(types.OpCreate, err)
	}

	mu := t.d.Locker(t.key)
	mu.Lock()
	defer mu.Unlock()

	items, err := store.Read[T](ctx, t.d, t.key)
	if err != nil {
		return zero, t.fail(types.OpCreate, err)
	}
	now := t.opts.Now()
	entity := t.build(types.Stamp{ID: t.opts.NewID(), CreatedAt: now, UpdatedAt: now}, in)
	if err := store.Write(ctx, t.d, t.key, append(items, entity)); err != nil {
		return zero, t.fail(types.OpCreate, err)
	}
	t.log.Debug().Str("id", entity.EntityID()).Msg("created")
	return entity, nil
}

// Update merges u into the entity with id. It returns nil when the id is
// unknown. UpdatedAt always moves strictly forward.
func (t *table[T, In, U]) Update(ctx context.Context, id string, u U) (*T, error) {
	defer t.opts.Metrics.ObserveRepo(string(t.kind), "update", time.Now())
	if err := t.wait(ctx); err != nil {
		return nil, t.fail(types.OpUpdate, err)
	}
	if err := u.Validate(); err != nil {
		return nil, t.fail(types.OpUpdate, err)
	}

	mu := t.d.Locker(t.key)
	mu.Lock()
	defer mu.Unlock()

	items, err := store.Read[T](ctx, t.d, t.key)
	if err != nil {
		return nil, t.fail(types.OpUpdate, err)
	}
	idx := -1
	for i := range items {
		if items[i].EntityID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	prior := t.stamp(items[idx]).UpdatedAt
	now := t.opts.Now()
	if !now.After(prior) {
		now = prior.Add(time.Nanosecond)
	}
	updated := t.touch(t.apply(items[idx], u), now)
	items[idx] = updated
	if err := store.Write(ctx, t.d, t.key, items); err != nil {
		return nil, t.fail(types.OpUpdate, err)
	}
	t.log.Debug().Str("id", id).Msg("updated")
	return &updated, nil
}

// Delete removes the entity with id and reports whether it existed.
// References held by other entities are left untouched.
func (t *table[T, In, U]) Delete(ctx context.Context, id string) (bool, error) {
	defer t.opts.Metrics.ObserveRepo(string(t.kind), "delete", time.Now())
	if err := t.wait(ctx); err != nil {
		return false, t.fail(types.OpDelete, err)
	}

	mu := t.d.Locker(t.key)
	mu.Lock()
	defer mu.Unlock()

	items, err := store.Read[T](ctx, t.d, t.key)
	if err != nil {
		return false, t.fail(types.OpDelete, err)
	}
	kept := items[:0]
	found := false
	for _, it := range items {
		if it.EntityID() == id {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return false, nil
	}
	if err := store.Write(ctx, t.d, t.key, kept); err != nil {
		return false, t.fail(types.OpDelete, err)
	}
	t.log.Debug().Str("id", id).Msg("deleted")
	return true, nil
}
