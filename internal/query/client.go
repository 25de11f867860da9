// Package query is an application-scoped cache in front of asynchronous
// reads. It deduplicates concurrent fetches of the same key, tracks
// loading, fetching, error and staleness per key, lets callers overwrite
// entries synchronously, and refetches observed entries when they are
// invalidated.
package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/ogsm/internal/logging"
	"github.com/mesh-intelligence/ogsm/internal/metrics"
)

// ErrCancelled is returned to a waiter whose fetch was cancelled while no
// cached value existed to fall back on.
var ErrCancelled = errors.New("query cancelled")

// ErrNoFetcher is returned when a key is fetched without a function and
// none was remembered for it.
var ErrNoFetcher = errors.New("no fetch function for key")

// FetchFunc loads the value for one key.
type FetchFunc func(ctx context.Context) (any, error)

// RefetchMode controls whether Invalidate waits for the refetches it starts.
type RefetchMode int

const (
	// RefetchAwait blocks until every triggered refetch finished.
	RefetchAwait RefetchMode = iota
	// RefetchBackground returns as soon as entries are marked stale.
	RefetchBackground
)

// Status summarizes an entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is a snapshot of one entry.
type State struct {
	Key        Key
	Data       any
	Err        error
	Status     Status
	IsLoading  bool
	IsFetching bool
	IsError    bool
	IsStale    bool
	UpdatedAt  time.Time
}

type entry struct {
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	stale     bool

	fetching bool
	gen      uint64
	fetchFn  FetchFunc

	subs map[uint64]chan State
}

// Options configures a Client.
type Options struct {
	// StaleTime is how long data stays fresh after a fetch. Zero keeps
	// data fresh until it is invalidated.
	StaleTime time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now     func() time.Time
	Metrics *metrics.Metrics
	Logger  *zerolog.Logger
}

// Client holds the cache. Construct one per application instance.
type Client struct {
	opts  Options
	log   zerolog.Logger
	group singleflight.Group

	mu      sync.Mutex
	entries map[Key]*entry
	seq     uint64
}

// NewClient creates an empty cache.
func NewClient(opts Options) *Client {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := logging.WithComponent("query")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Client{
		opts:    opts,
		log:     log,
		entries: make(map[Key]*entry),
	}
}

func (c *Client) next() uint64 {
	c.seq++
	return c.seq
}

func (c *Client) entry(k Key) *entry {
	e, ok := c.entries[k]
	if !ok {
		e = &entry{gen: c.next(), subs: make(map[uint64]chan State)}
		c.entries[k] = e
	}
	return e
}

func (c *Client) fresh(e *entry) bool {
	if !e.hasData || e.stale {
		return false
	}
	if c.opts.StaleTime > 0 && c.opts.Now().Sub(e.updatedAt) >= c.opts.StaleTime {
		return false
	}
	return true
}

func (c *Client) snapshot(k Key, e *entry) State {
	s := State{
		Key:        k,
		Data:       e.data,
		Err:        e.err,
		IsFetching: e.fetching,
		IsLoading:  e.fetching && !e.hasData,
		IsError:    e.err != nil,
		IsStale:    !c.fresh(e),
		UpdatedAt:  e.updatedAt,
	}
	switch {
	case e.err != nil:
		s.Status = StatusError
	case e.hasData:
		s.Status = StatusSuccess
	default:
		s.Status = StatusPending
	}
	return s
}

// notify fans the current state out to subscribers without blocking. A
// subscriber that has not drained its previous state gets the newer one
// instead.
func (c *Client) notify(k Key, e *entry) {
	if len(e.subs) == 0 {
		return
	}
	s := c.snapshot(k, e)
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// State returns the current snapshot for k. Unknown keys report pending.
func (c *Client) State(k Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return State{Key: k, Status: StatusPending, IsStale: true}
	}
	return c.snapshot(k, e)
}

// Data returns the cached value for k, if any.
func (c *Client) Data(k Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// SetData overwrites the entry for k synchronously and notifies observers.
func (c *Client) SetData(k Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(k)
	e.data = v
	e.hasData = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.opts.Now()
	c.notify(k, e)
}

// Fetch returns fresh cached data for k, or runs fn to load it. Concurrent
// callers of the same key share one call. The call is detached from ctx so
// one caller giving up does not fail the others; ctx only bounds how long
// this caller waits.
func (c *Client) Fetch(ctx context.Context, k Key, fn FetchFunc) (any, error) {
	return c.fetch(ctx, k, fn, false)
}

type outcome struct {
	val     any
	err     error
	applied bool
}

func (c *Client) fetch(ctx context.Context, k Key, fn FetchFunc, force bool) (any, error) {
	c.mu.Lock()
	e := c.entry(k)
	if !force && c.fresh(e) {
		v := e.data
		c.mu.Unlock()
		c.opts.Metrics.CacheLookup("hit")
		return v, nil
	}
	if fn != nil {
		e.fetchFn = fn
	}
	if e.fetchFn == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoFetcher, k)
	}
	if e.fetching {
		c.opts.Metrics.CacheLookup("shared")
	} else {
		c.opts.Metrics.CacheLookup("miss")
	}
	ch := c.start(ctx, k, e)
	c.mu.Unlock()

	for {
		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}
		out := res.Val.(outcome)
		if out.applied {
			return out.val, out.err
		}

		// The flight was superseded. Follow a newer one if it exists,
		// otherwise fall back to whatever is cached.
		c.mu.Lock()
		e, ok := c.entries[k]
		if ok && e.fetching {
			ch = c.start(ctx, k, e)
			c.mu.Unlock()
			continue
		}
		var v any
		has := false
		if ok && e.hasData {
			v, has = e.data, true
		}
		c.mu.Unlock()
		if has {
			return v, nil
		}
		return nil, ErrCancelled
	}
}

// start joins or launches the flight for the entry's current generation.
// Callers hold c.mu.
func (c *Client) start(ctx context.Context, k Key, e *entry) <-chan singleflight.Result {
	if !e.fetching {
		e.fetching = true
		c.notify(k, e)
	}
	gen := e.gen
	fn := e.fetchFn
	detached := context.WithoutCancel(ctx)
	return c.group.DoChan(k.String()+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		c.log.Debug().Str("key", k.String()).Msg("fetching")
		v, err := fn(detached)
		applied := c.settle(k, gen, v, err)
		return outcome{val: v, err: err, applied: applied}, nil
	})
}

// settle records a fetch result unless its generation was superseded.
func (c *Client) settle(k Key, gen uint64, v any, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || e.gen != gen {
		c.opts.Metrics.CacheFetch("ignored")
		c.log.Debug().Str("key", k.String()).Msg("discarding superseded fetch")
		return false
	}
	e.fetching = false
	e.gen = c.next()
	if err != nil {
		e.err = err
		c.opts.Metrics.CacheFetch("error")
		c.log.Debug().Str("key", k.String()).Err(err).Msg("fetch failed")
	} else {
		e.data = v
		e.hasData = true
		e.err = nil
		e.stale = false
		e.updatedAt = c.opts.Now()
		c.opts.Metrics.CacheFetch("success")
	}
	c.notify(k, e)
	return true
}

// Cancel discards the in-flight fetch for k, if any. Its result will not
// reach the cache; waiters receive whatever is cached at that point.
func (c *Client) Cancel(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return
	}
	e.gen = c.next()
	if e.fetching {
		e.fetching = false
		c.log.Debug().Str("key", k.String()).Msg("cancelled fetch")
		c.notify(k, e)
	}
}

// Invalidate marks every entry matching f stale. Entries that are observed
// or mid-fetch are refetched with their remembered fetch function; others
// refetch on their next Fetch.
func (c *Client) Invalidate(ctx context.Context, f Filter, mode RefetchMode) {
	type job struct {
		key Key
		fn  FetchFunc
	}
	var jobs []job

	c.mu.Lock()
	for k, e := range c.entries {
		if !f.Match(k) {
			continue
		}
		e.stale = true
		if (len(e.subs) > 0 || e.fetching) && e.fetchFn != nil {
			// A fetch started before the invalidation may carry old data.
			e.gen = c.next()
			e.fetching = false
			jobs = append(jobs, job{key: k, fn: e.fetchFn})
		}
		c.notify(k, e)
	}
	c.mu.Unlock()

	c.log.Debug().Str("kind", string(f.Kind)).Str("scope", string(f.Scope)).
		Int("refetching", len(jobs)).Msg("invalidated")

	detached := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.fetch(detached, j.key, j.fn, true)
		}()
	}
	if mode == RefetchAwait {
		wg.Wait()
	}
}

// Subscribe registers an observer of k. The channel receives the current
// state immediately and every later change; slow readers only see the
// latest state. A non-nil fn becomes the key's refetch function and, when
// the entry has no fresh data, is started in the background. The returned
// function unsubscribes and closes the channel.
func (c *Client) Subscribe(k Key, fn FetchFunc) (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	e := c.entry(k)
	if fn != nil {
		e.fetchFn = fn
	}
	id := c.next()
	e.subs[id] = ch
	ch <- c.snapshot(k, e)
	load := e.fetchFn != nil && !c.fresh(e) && !e.fetching
	c.mu.Unlock()

	if load {
		go func() { _, _ = c.fetch(context.Background(), k, nil, true) }()
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if e, ok := c.entries[k]; ok {
				if sub, ok := e.subs[id]; ok {
					delete(e.subs, id)
					close(sub)
				}
			}
		})
	}
}

// Remove drops every entry matching f. In-flight fetches for removed
// entries are discarded and their observers' channels are closed.
func (c *Client) Remove(f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !f.Match(k) {
			continue
		}
		for id, ch := range e.subs {
			delete(e.subs, id)
			close(ch)
		}
		delete(c.entries, k)
	}
}

// Clear drops every entry.
func (c *Client) Clear() { c.Remove(Filter{}) }

// Keys returns the keys of every entry matching f, in no particular order.
func (c *Client) Keys(f Filter) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Key
	for k := range c.entries {
		if f.Match(k) {
			out = append(out, k)
		}
	}
	return out
}

// FetchAs is Fetch with a typed result.
func FetchAs[T any](ctx context.Context, c *Client, k Key, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, k, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		var zero T
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

// DataAs returns the cached value for k when it holds a T.
func DataAs[T any](c *Client, k Key) (T, bool) {
	v, ok := c.Data(k)
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}
