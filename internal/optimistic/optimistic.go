// Package optimistic applies partial updates to cached entities before the
// write completes, restores the prior value when the write fails, and
// always reconciles the cache with storage afterwards.
package optimistic

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/ogsm/internal/logging"
	"github.com/mesh-intelligence/ogsm/internal/metrics"
	"github.com/mesh-intelligence/ogsm/internal/query"
)

// SettleMode selects how the final invalidation behaves.
type SettleMode int

const (
	// AwaitRefetch returns from Update only after observed entries were
	// refetched.
	AwaitRefetch SettleMode = iota
	// BackgroundRefetch returns as soon as entries are marked stale.
	BackgroundRefetch
)

// Phase is the progress of one update attempt.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseOptimistic  Phase = "optimistic"
	PhaseReconciling Phase = "reconciling"
	PhaseCommitted   Phase = "committed"
	PhaseRolledBack  Phase = "rolled_back"
)

// Config describes one entity kind's optimistic update.
type Config[T, P any] struct {
	Client *query.Client
	// DetailKey addresses the cached single entity.
	DetailKey func(id string) query.Key
	// Lists selects the kind's collection entries, invalidated on settle.
	Lists query.Filter
	// Also lists further entries to invalidate on settle, such as composed
	// views that embed the entity.
	Also []query.Filter
	// Merge applies a patch to a cached value without mutating it.
	Merge func(T, P) T
	// Write performs the durable update. A nil result means the id was
	// unknown.
	Write  func(ctx context.Context, id string, patch P) (*T, error)
	Settle SettleMode
	// Observer, when set, receives every phase transition.
	Observer func(id string, p Phase)
	Metrics  *metrics.Metrics
	Logger   *zerolog.Logger
}

// Input is one update request.
type Input[P any] struct {
	ID    string
	Patch P
}

type snapshot[T any] struct {
	prior    *T
	captured bool
}

// Updater runs optimistic updates for one kind.
type Updater[T, P any] struct {
	cfg Config[T, P]
	log zerolog.Logger
	m   *query.Mutation[Input[P], *T, snapshot[T]]
	cur atomic.Value // Phase
}

// New builds an Updater from cfg.
func New[T, P any](cfg Config[T, P]) *Updater[T, P] {
	u := &Updater[T, P]{cfg: cfg, log: logging.WithComponent("optimistic")}
	u.cur.Store(PhaseIdle)
	if cfg.Logger != nil {
		u.log = *cfg.Logger
	}
	u.m = query.NewMutation(cfg.Client, query.MutationOptions[Input[P], *T, snapshot[T]]{
		OnMutate:  u.onMutate,
		Fn:        func(ctx context.Context, in Input[P]) (*T, error) { return cfg.Write(ctx, in.ID, in.Patch) },
		OnError:   u.onError,
		OnSettled: u.onSettled,
	})
	return u
}

func (u *Updater[T, P]) phase(id string, p Phase) {
	u.cur.Store(p)
	u.log.Debug().Str("id", id).Str("phase", string(p)).Msg("optimistic transition")
	u.cfg.Metrics.Phase(string(p))
	if u.cfg.Observer != nil {
		u.cfg.Observer(id, p)
	}
}

// onMutate cancels in-flight reads of the entity, captures the cached value
// and writes the merged value in its place. Nothing is written when the
// entity is not cached. It leaves the attempt in PhaseReconciling, which
// lasts until the repository call returns.
func (u *Updater[T, P]) onMutate(_ context.Context, in Input[P]) (snapshot[T], error) {
	key := u.cfg.DetailKey(in.ID)
	u.cfg.Client.Cancel(key)

	prior, ok := query.DataAs[*T](u.cfg.Client, key)
	snap := snapshot[T]{prior: prior, captured: ok}
	if ok && prior != nil {
		merged := u.cfg.Merge(*prior, in.Patch)
		u.cfg.Client.SetData(key, &merged)
	}
	u.phase(in.ID, PhaseOptimistic)
	u.phase(in.ID, PhaseReconciling)
	return snap, nil
}

// onError puts the captured value back exactly as it was.
func (u *Updater[T, P]) onError(_ context.Context, err error, in Input[P], snap snapshot[T]) {
	if snap.captured {
		u.cfg.Client.SetData(u.cfg.DetailKey(in.ID), snap.prior)
	}
	u.log.Debug().Str("id", in.ID).Err(err).Msg("write failed, restored snapshot")
}

// onSettled reconciles the detail entry and the kind's lists with storage,
// then records the outcome.
func (u *Updater[T, P]) onSettled(ctx context.Context, _ *T, err error, in Input[P], _ snapshot[T]) {
	mode := query.RefetchAwait
	if u.cfg.Settle == BackgroundRefetch {
		mode = query.RefetchBackground
	}
	u.cfg.Client.Invalidate(ctx, query.Exact(u.cfg.DetailKey(in.ID)), mode)
	u.cfg.Client.Invalidate(ctx, u.cfg.Lists, mode)
	for _, f := range u.cfg.Also {
		u.cfg.Client.Invalidate(ctx, f, mode)
	}
	if err != nil {
		u.phase(in.ID, PhaseRolledBack)
		return
	}
	u.phase(in.ID, PhaseCommitted)
}

// Update applies patch to the entity with id.
func (u *Updater[T, P]) Update(ctx context.Context, id string, patch P) (*T, error) {
	return u.m.Mutate(ctx, Input[P]{ID: id, Patch: patch})
}

// State reports the most recent attempt.
func (u *Updater[T, P]) State() query.MutationState[*T] {
	return u.m.State()
}

// Phase returns the current phase of the most recent attempt.
func (u *Updater[T, P]) Phase() Phase {
	return u.cur.Load().(Phase)
}
