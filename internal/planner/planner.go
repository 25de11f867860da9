// Package planner is the data-access surface the application talks to.
// Reads go through the shared cache, updates use the optimistic recipe,
// and creates and deletes reconcile the affected cache entries when they
// settle.
package planner

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/ogsm/internal/detail"
	"github.com/mesh-intelligence/ogsm/internal/logging"
	"github.com/mesh-intelligence/ogsm/internal/metrics"
	"github.com/mesh-intelligence/ogsm/internal/optimistic"
	"github.com/mesh-intelligence/ogsm/internal/query"
	"github.com/mesh-intelligence/ogsm/internal/repo"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Options configures a Client.
type Options struct {
	Settle optimistic.SettleMode
	// Observer receives optimistic phase transitions for every kind.
	Observer func(kind types.Kind, id string, p optimistic.Phase)
	Metrics  *metrics.Metrics
	Logger   *zerolog.Logger
}

// Client combines the repositories with a cache.
type Client struct {
	repos    *repo.Set
	cache    *query.Client
	composer *detail.Composer
	bulk     *detail.Bulk
	opts     Options
	log      zerolog.Logger

	plans      *ops[types.Plan, types.PlanInput, types.PlanUpdate]
	goals      *ops[types.Goal, types.GoalInput, types.GoalUpdate]
	kpis       *ops[types.KPI, types.KPIInput, types.KPIUpdate]
	strategies *ops[types.Strategy, types.StrategyInput, types.StrategyUpdate]
	actions    *ops[types.Action, types.ActionInput, types.ActionUpdate]
	tasks      *ops[types.Task, types.TaskInput, types.TaskUpdate]
}

// New wires repos and cache together.
func New(repos *repo.Set, cache *query.Client, opts Options) *Client {
	c := &Client{
		repos: repos,
		cache: cache,
		bulk:  detail.NewBulk(repos),
		opts:  opts,
		log:   logging.WithComponent("planner"),
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	c.composer = detail.NewComposer(c)
	c.plans = newOps[types.Plan, types.PlanInput, types.PlanUpdate](c, types.KindPlan, repos.Plans, types.Plan.Apply)
	c.goals = newOps[types.Goal, types.GoalInput, types.GoalUpdate](c, types.KindGoal, repos.Goals, types.Goal.Apply)
	c.kpis = newOps[types.KPI, types.KPIInput, types.KPIUpdate](c, types.KindKPI, repos.KPIs, types.KPI.Apply)
	c.strategies = newOps[types.Strategy, types.StrategyInput, types.StrategyUpdate](c, types.KindStrategy, repos.Strategies, types.Strategy.Apply)
	c.actions = newOps[types.Action, types.ActionInput, types.ActionUpdate](c, types.KindAction, repos.Actions, types.Action.Apply)
	c.tasks = newOps[types.Task, types.TaskInput, types.TaskUpdate](c, types.KindTask, repos.Tasks, types.Task.Apply)
	return c
}

// Cache returns the shared cache.
func (c *Client) Cache() *query.Client { return c.cache }

// Repos returns the underlying repositories.
func (c *Client) Repos() *repo.Set { return c.repos }

// writer is the write half of a repository.
type writer[T, In, U any] interface {
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id string, u U) (*T, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ops holds the mutations of one kind.
type ops[T, In, U any] struct {
	create *query.Mutation[In, T, struct{}]
	update *optimistic.Updater[T, U]
	remove *query.Mutation[string, bool, struct{}]
}

func newOps[T, In, U any](c *Client, kind types.Kind, w writer[T, In, U], merge func(T, U) T) *ops[T, In, U] {
	detailKey := func(id string) query.Key { return query.DetailKey(kind, id) }
	var observer func(string, optimistic.Phase)
	if c.opts.Observer != nil {
		observer = func(id string, p optimistic.Phase) { c.opts.Observer(kind, id, p) }
	}
	mode := query.RefetchAwait
	if c.opts.Settle == optimistic.BackgroundRefetch {
		mode = query.RefetchBackground
	}

	return &ops[T, In, U]{
		create: query.NewMutation(c.cache, query.MutationOptions[In, T, struct{}]{
			Fn: w.Create,
			OnSettled: func(ctx context.Context, _ T, _ error, _ In, _ struct{}) {
				c.cache.Invalidate(ctx, query.Lists(kind), mode)
			},
		}),
		update: optimistic.New(optimistic.Config[T, U]{
			Client:    c.cache,
			DetailKey: detailKey,
			Lists:     query.Lists(kind),
			Also:      []query.Filter{query.Trees()},
			Merge:     merge,
			Write:     w.Update,
			Settle:    c.opts.Settle,
			Observer:  observer,
			Metrics:   c.opts.Metrics,
			Logger:    c.opts.Logger,
		}),
		remove: query.NewMutation(c.cache, query.MutationOptions[string, bool, struct{}]{
			Fn: w.Delete,
			OnSettled: func(ctx context.Context, _ bool, _ error, id string, _ struct{}) {
				c.cache.Remove(query.Exact(detailKey(id)))
				c.cache.Invalidate(ctx, query.Lists(kind), mode)
				c.cache.Invalidate(ctx, query.Trees(), mode)
			},
		}),
	}
}

func one[T any](ctx context.Context, c *Client, kind types.Kind, id string, get func(context.Context, string) (*T, error)) (*T, error) {
	return query.FetchAs(ctx, c.cache, query.DetailKey(kind, id), func(ctx context.Context) (*T, error) {
		return get(ctx, id)
	})
}

func many[T any](ctx context.Context, c *Client, kind types.Kind, ids []string, get func(context.Context, []string) ([]T, error)) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	return query.FetchAs(ctx, c.cache, query.IDsKey(kind, ids), func(ctx context.Context) ([]T, error) {
		return get(ctx, ids)
	})
}

func all[T any](ctx context.Context, c *Client, kind types.Kind, list func(context.Context) ([]T, error)) ([]T, error) {
	return query.FetchAs(ctx, c.cache, query.ListKey(kind), list)
}

func tree[T any](ctx context.Context, c *Client, kind types.Kind, id string, compose func(context.Context, string) (*T, error)) (*T, error) {
	return query.FetchAs(ctx, c.cache, query.TreeKey(kind, id), func(ctx context.Context) (*T, error) {
		return compose(ctx, id)
	})
}
