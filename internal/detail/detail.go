// Package detail assembles nested read models (plan, goal, strategy and
// action trees) from flat entity reads. Children always follow the order
// of the parent's reference list; ids that no longer resolve are skipped.
package detail

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Source is the read surface composition needs. A nil entity with a nil
// error means the id is unknown.
type Source interface {
	Plan(ctx context.Context, id string) (*types.Plan, error)
	Goal(ctx context.Context, id string) (*types.Goal, error)
	Strategy(ctx context.Context, id string) (*types.Strategy, error)
	Action(ctx context.Context, id string) (*types.Action, error)

	GoalsByID(ctx context.Context, ids []string) ([]types.Goal, error)
	KPIsByID(ctx context.Context, ids []string) ([]types.KPI, error)
	StrategiesByID(ctx context.Context, ids []string) ([]types.Strategy, error)
	ActionsByID(ctx context.Context, ids []string) ([]types.Action, error)
	TasksByID(ctx context.Context, ids []string) ([]types.Task, error)
}

// Composer builds detail views by chaining reads against a Source.
// Independent branches run concurrently; the first failure cancels the rest.
type Composer struct {
	src Source
}

// NewComposer returns a Composer reading from src.
func NewComposer(src Source) *Composer {
	return &Composer{src: src}
}

// Goal returns the goal with its KPIs, or nil when the goal is unknown.
func (c *Composer) Goal(ctx context.Context, id string) (*types.GoalDetail, error) {
	g, err := c.src.Goal(ctx, id)
	if err != nil || g == nil {
		return nil, err
	}
	d, err := c.goal(ctx, *g)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Action returns the action with its tasks, or nil when the action is
// unknown.
func (c *Composer) Action(ctx context.Context, id string) (*types.ActionDetail, error) {
	a, err := c.src.Action(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	d, err := c.action(ctx, *a)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Strategy returns the strategy with its KPIs and action trees, or nil when
// the strategy is unknown.
func (c *Composer) Strategy(ctx context.Context, id string) (*types.StrategyDetail, error) {
	s, err := c.src.Strategy(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}
	d, err := c.strategy(ctx, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Plan returns the full plan tree, or nil when the plan is unknown.
func (c *Composer) Plan(ctx context.Context, id string) (*types.PlanDetail, error) {
	p, err := c.src.Plan(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}

	var goals []types.GoalDetail
	var strategies []types.StrategyDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := c.src.GoalsByID(gctx, p.GoalIDs)
		if err != nil {
			return err
		}
		goals, err = fanOut(gctx, ordered(p.GoalIDs, rows), c.goal)
		return err
	})
	g.Go(func() error {
		rows, err := c.src.StrategiesByID(gctx, p.StrategyIDs)
		if err != nil {
			return err
		}
		strategies, err = fanOut(gctx, ordered(p.StrategyIDs, rows), c.strategy)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &types.PlanDetail{Plan: *p, Goals: goals, Strategies: strategies}, nil
}

func (c *Composer) goal(ctx context.Context, g types.Goal) (types.GoalDetail, error) {
	kpis, err := c.src.KPIsByID(ctx, g.KPIIDs)
	if err != nil {
		return types.GoalDetail{}, err
	}
	return types.GoalDetail{Goal: g, KPIs: ordered(g.KPIIDs, kpis)}, nil
}

func (c *Composer) action(ctx context.Context, a types.Action) (types.ActionDetail, error) {
	tasks, err := c.src.TasksByID(ctx, a.TaskIDs)
	if err != nil {
		return types.ActionDetail{}, err
	}
	return types.ActionDetail{Action: a, Tasks: ordered(a.TaskIDs, tasks)}, nil
}

func (c *Composer) strategy(ctx context.Context, s types.Strategy) (types.StrategyDetail, error) {
	var kpis []types.KPI
	var actions []types.ActionDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := c.src.KPIsByID(gctx, s.KPIIDs)
		if err != nil {
			return err
		}
		kpis = ordered(s.KPIIDs, rows)
		return nil
	})
	g.Go(func() error {
		rows, err := c.src.ActionsByID(gctx, s.ActionIDs)
		if err != nil {
			return err
		}
		actions, err = fanOut(gctx, ordered(s.ActionIDs, rows), c.action)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.StrategyDetail{}, err
	}
	return types.StrategyDetail{Strategy: s, KPIs: kpis, Actions: actions}, nil
}

// fanOut applies fn to every item concurrently and keeps input order.
func fanOut[In, Out any](ctx context.Context, items []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, it := range items {
		g.Go(func() error {
			v, err := fn(gctx, it)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ordered arranges rows by ids, dropping ids with no matching row. The
// result is never nil.
func ordered[T types.Entity](ids []string, rows []T) []T {
	byID := make(map[string]T, len(rows))
	for _, r := range rows {
		byID[r.EntityID()] = r
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
