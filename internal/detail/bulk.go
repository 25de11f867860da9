package detail

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Catalog lists every entity of each kind.
type Catalog interface {
	AllPlans(ctx context.Context) ([]types.Plan, error)
	AllGoals(ctx context.Context) ([]types.Goal, error)
	AllKPIs(ctx context.Context) ([]types.KPI, error)
	AllStrategies(ctx context.Context) ([]types.Strategy, error)
	AllActions(ctx context.Context) ([]types.Action, error)
	AllTasks(ctx context.Context) ([]types.Task, error)
}

// Bulk builds a plan tree from one full read of each kind, joined in
// memory. It produces the same PlanDetail as Composer.Plan over the same
// data while issuing six reads instead of one per node.
type Bulk struct {
	cat Catalog
}

// NewBulk returns a Bulk reading from cat.
func NewBulk(cat Catalog) *Bulk {
	return &Bulk{cat: cat}
}

type snapshot struct {
	plans      []types.Plan
	goals      map[string]types.Goal
	kpis       map[string]types.KPI
	strategies map[string]types.Strategy
	actions    map[string]types.Action
	tasks      map[string]types.Task
}

func index[T types.Entity](rows []T) map[string]T {
	m := make(map[string]T, len(rows))
	for _, r := range rows {
		m[r.EntityID()] = r
	}
	return m
}

func pick[T any](ids []string, m map[string]T) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := m[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (b *Bulk) load(ctx context.Context) (*snapshot, error) {
	var (
		plans      []types.Plan
		goals      []types.Goal
		kpis       []types.KPI
		strategies []types.Strategy
		actions    []types.Action
		tasks      []types.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { plans, err = b.cat.AllPlans(gctx); return })
	g.Go(func() (err error) { goals, err = b.cat.AllGoals(gctx); return })
	g.Go(func() (err error) { kpis, err = b.cat.AllKPIs(gctx); return })
	g.Go(func() (err error) { strategies, err = b.cat.AllStrategies(gctx); return })
	g.Go(func() (err error) { actions, err = b.cat.AllActions(gctx); return })
	g.Go(func() (err error) { tasks, err = b.cat.AllTasks(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snapshot{
		plans:      plans,
		goals:      index(goals),
		kpis:       index(kpis),
		strategies: index(strategies),
		actions:    index(actions),
		tasks:      index(tasks),
	}, nil
}

func (s *snapshot) plan(p types.Plan) types.PlanDetail {
	goals := make([]types.GoalDetail, 0, len(p.GoalIDs))
	for _, g := range pick(p.GoalIDs, s.goals) {
		goals = append(goals, types.GoalDetail{Goal: g, KPIs: pick(g.KPIIDs, s.kpis)})
	}
	strategies := make([]types.StrategyDetail, 0, len(p.StrategyIDs))
	for _, st := range pick(p.StrategyIDs, s.strategies) {
		acts := make([]types.ActionDetail, 0, len(st.ActionIDs))
		for _, a := range pick(st.ActionIDs, s.actions) {
			acts = append(acts, types.ActionDetail{Action: a, Tasks: pick(a.TaskIDs, s.tasks)})
		}
		strategies = append(strategies, types.StrategyDetail{
			Strategy: st,
			KPIs:     pick(st.KPIIDs, s.kpis),
			Actions:  acts,
		})
	}
	return types.PlanDetail{Plan: p, Goals: goals, Strategies: strategies}
}

// Plan returns the tree for planID, or nil when the plan is unknown.
func (b *Bulk) Plan(ctx context.Context, planID string) (*types.PlanDetail, error) {
	s, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range s.plans {
		if p.ID == planID {
			d := s.plan(p)
			return &d, nil
		}
	}
	return nil, nil
}

// All returns the tree of every plan in storage order.
func (b *Bulk) All(ctx context.Context) ([]types.PlanDetail, error) {
	s, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.PlanDetail, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, s.plan(p))
	}
	return out, nil
}
