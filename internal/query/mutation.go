package query

import (
	"context"
	"sync"
)

// MutationStatus is the lifecycle state of a Mutation.
type MutationStatus string

const (
	MutationIdle    MutationStatus = "idle"
	MutationPending MutationStatus = "pending"
	MutationSuccess MutationStatus = "success"
	MutationError   MutationStatus = "error"
)

// MutationOptions wires a write and its cache hooks. In is the mutation
// input, Out the write's result and C the context OnMutate hands to the
// later hooks (typically a rollback snapshot).
//
// Hooks run in this order: OnMutate, Fn, then OnSuccess or OnError, and
// finally OnSettled. If OnMutate fails, Fn is skipped and the error path
// runs with whatever context OnMutate returned.
type MutationOptions[In, Out, C any] struct {
	Fn        func(ctx context.Context, in In) (Out, error)
	OnMutate  func(ctx context.Context, in In) (C, error)
	OnSuccess func(ctx context.Context, out Out, in In, mc C)
	OnError   func(ctx context.Context, err error, in In, mc C)
	OnSettled func(ctx context.Context, out Out, err error, in In, mc C)
}

// MutationState is a snapshot of the most recent attempt.
type MutationState[Out any] struct {
	Status MutationStatus
	Data   Out
	Err    error
}

// Mutation runs writes through a fixed set of hooks.
type Mutation[In, Out, C any] struct {
	client *Client
	opts   MutationOptions[In, Out, C]

	mu    sync.Mutex
	state MutationState[Out]
}

// NewMutation binds opts to c.
func NewMutation[In, Out, C any](c *Client, opts MutationOptions[In, Out, C]) *Mutation[In, Out, C] {
	return &Mutation[In, Out, C]{
		client: c,
		opts:   opts,
		state:  MutationState[Out]{Status: MutationIdle},
	}
}

// Client returns the cache the mutation was bound to.
func (m *Mutation[In, Out, C]) Client() *Client { return m.client }

// State returns the last attempt's status, data and error.
func (m *Mutation[In, Out, C]) State() MutationState[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mutation[In, Out, C]) record(outcome string) {
	if m.client != nil {
		m.client.opts.Metrics.Mutation(outcome)
	}
}

func (m *Mutation[In, Out, C]) set(s MutationState[Out]) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Mutate runs one attempt. All hooks have run by the time it returns; the
// error, if any, is the one that reached OnError.
func (m *Mutation[In, Out, C]) Mutate(ctx context.Context, in In) (Out, error) {
	var (
		out Out
		mc  C
		err error
	)
	m.set(MutationState[Out]{Status: MutationPending})

	if m.opts.OnMutate != nil {
		mc, err = m.opts.OnMutate(ctx, in)
	}
	if err == nil {
		out, err = m.opts.Fn(ctx, in)
	}

	if err != nil {
		if m.opts.OnError != nil {
			m.opts.OnError(ctx, err, in, mc)
		}
	} else if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(ctx, out, in, mc)
	}
	if m.opts.OnSettled != nil {
		m.opts.OnSettled(ctx, out, err, in, mc)
	}

	if err != nil {
		m.record("error")
		m.set(MutationState[Out]{Status: MutationError, Err: err})
		var zero Out
		return zero, err
	}
	m.record("success")
	m.set(MutationState[Out]{Status: MutationSuccess, Data: out})
	return out, nil
}
