package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/ogsm/internal/query"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// CreatePlan stores a new plan and invalidates the plan lists. Creating
// never touches cached trees.
func (c *Client) CreatePlan(ctx context.Context, in types.PlanInput) (types.Plan, error) {
	return c.plans.create.Mutate(ctx, in)
}

// CreateGoal stores a new goal and invalidates the goal lists.
func (c *Client) CreateGoal(ctx context.Context, in types.GoalInput) (types.Goal, error) {
	return c.goals.create.Mutate(ctx, in)
}

// CreateKPI stores a new KPI and invalidates the KPI lists.
func (c *Client) CreateKPI(ctx context.Context, in types.KPIInput) (types.KPI, error) {
	return c.kpis.create.Mutate(ctx, in)
}

// CreateStrategy stores a new strategy and invalidates the strategy lists.
func (c *Client) CreateStrategy(ctx context.Context, in types.StrategyInput) (types.Strategy, error) {
	return c.strategies.create.Mutate(ctx, in)
}

// CreateAction stores a new action and invalidates the action lists.
func (c *Client) CreateAction(ctx context.Context, in types.ActionInput) (types.Action, error) {
	return c.actions.create.Mutate(ctx, in)
}

// CreateTask stores a new task and invalidates the task lists.
func (c *Client) CreateTask(ctx context.Context, in types.TaskInput) (types.Task, error) {
	return c.tasks.create.Mutate(ctx, in)
}

// Updates apply the patch to the cached entity immediately, roll back on
// failure and reconcile with storage once settled. A nil result means the
// id was unknown.

// UpdatePlan patches the plan with id.
func (c *Client) UpdatePlan(ctx context.Context, id string, u types.PlanUpdate) (*types.Plan, error) {
	return c.plans.update.Update(ctx, id, u)
}

// UpdateGoal patches the goal with id.
func (c *Client) UpdateGoal(ctx context.Context, id string, u types.GoalUpdate) (*types.Goal, error) {
	return c.goals.update.Update(ctx, id, u)
}

// UpdateKPI patches the KPI with id.
func (c *Client) UpdateKPI(ctx context.Context, id string, u types.KPIUpdate) (*types.KPI, error) {
	return c.kpis.update.Update(ctx, id, u)
}

// UpdateStrategy patches the strategy with id.
func (c *Client) UpdateStrategy(ctx context.Context, id string, u types.StrategyUpdate) (*types.Strategy, error) {
	return c.strategies.update.Update(ctx, id, u)
}

// UpdateAction patches the action with id.
func (c *Client) UpdateAction(ctx context.Context, id string, u types.ActionUpdate) (*types.Action, error) {
	return c.actions.update.Update(ctx, id, u)
}

// UpdateTask patches the task with id.
func (c *Client) UpdateTask(ctx context.Context, id string, u types.TaskUpdate) (*types.Task, error) {
	return c.tasks.update.Update(ctx, id, u)
}

// Deletes remove only the entity. Parents keep their references until the
// caller detaches them.

// DeletePlan removes the plan with id.
func (c *Client) DeletePlan(ctx context.Context, id string) (bool, error) {
	return c.plans.remove.Mutate(ctx, id)
}

// DeleteGoal removes the goal with id.
func (c *Client) DeleteGoal(ctx context.Context, id string) (bool, error) {
	return c.goals.remove.Mutate(ctx, id)
}

// DeleteKPI removes the KPI with id.
func (c *Client) DeleteKPI(ctx context.Context, id string) (bool, error) {
	return c.kpis.remove.Mutate(ctx, id)
}

// DeleteStrategy removes the strategy with id.
func (c *Client) DeleteStrategy(ctx context.Context, id string) (bool, error) {
	return c.strategies.remove.Mutate(ctx, id)
}

// DeleteAction removes the action with id.
func (c *Client) DeleteAction(ctx context.Context, id string) (bool, error) {
	return c.actions.remove.Mutate(ctx, id)
}

// DeleteTask removes the task with id.
func (c *Client) DeleteTask(ctx context.Context, id string) (bool, error) {
	return c.tasks.remove.Mutate(ctx, id)
}

// Relation names a parent-to-child reference list.
type Relation string

const (
	PlanGoals       Relation = "plan.goals"
	PlanStrategies  Relation = "plan.strategies"
	GoalKPIs        Relation = "goal.kpis"
	StrategyKPIs    Relation = "strategy.kpis"
	StrategyActions Relation = "strategy.actions"
	ActionTasks     Relation = "action.tasks"
)

// Relations lists every parent-to-child relation.
var Relations = []Relation{PlanGoals, PlanStrategies, GoalKPIs, StrategyKPIs, StrategyActions, ActionTasks}

// ErrUnknownRelation is returned for a Relation outside Relations.
var ErrUnknownRelation = errors.New("unknown relation")

// Attach appends childID to the parent's reference list unless it is
// already present. It reports false when the parent is unknown.
func (c *Client) Attach(ctx context.Context, rel Relation, parentID, childID string) (bool, error) {
	return c.relink(ctx, rel, parentID, func(ids []string) []string {
		if slices.Contains(ids, childID) {
			return ids
		}
		return append(slices.Clone(ids), childID)
	})
}

// Detach removes every occurrence of childID from the parent's reference
// list. It reports false when the parent is unknown.
func (c *Client) Detach(ctx context.Context, rel Relation, parentID, childID string) (bool, error) {
	return c.relink(ctx, rel, parentID, func(ids []string) []string {
		return slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == childID })
	})
}

// Reorder replaces the parent's reference list with ids.
func (c *Client) Reorder(ctx context.Context, rel Relation, parentID string, ids []string) (bool, error) {
	return c.relink(ctx, rel, parentID, func([]string) []string { return slices.Clone(ids) })
}

func (c *Client) relink(ctx context.Context, rel Relation, parentID string, edit func([]string) []string) (bool, error) {
	switch rel {
	case PlanGoals, PlanStrategies:
		p, err := c.Plan(ctx, parentID)
		if err != nil || p == nil {
			return false, err
		}
		var u types.PlanUpdate
		if rel == PlanGoals {
			u.GoalIDs = types.Ptr(edit(p.GoalIDs))
		} else {
			u.StrategyIDs = types.Ptr(edit(p.StrategyIDs))
		}
		out, err := c.UpdatePlan(ctx, parentID, u)
		return out != nil, err
	case GoalKPIs:
		g, err := c.Goal(ctx, parentID)
		if err != nil || g == nil {
			return false, err
		}
		out, err := c.UpdateGoal(ctx, parentID, types.GoalUpdate{KPIIDs: types.Ptr(edit(g.KPIIDs))})
		return out != nil, err
	case StrategyKPIs, StrategyActions:
		s, err := c.Strategy(ctx, parentID)
		if err != nil || s == nil {
			return false, err
		}
		var u types.StrategyUpdate
		if rel == StrategyKPIs {
			u.KPIIDs = types.Ptr(edit(s.KPIIDs))
		} else {
			u.ActionIDs = types.Ptr(edit(s.ActionIDs))
		}
		out, err := c.UpdateStrategy(ctx, parentID, u)
		return out != nil, err
	case ActionTasks:
		a, err := c.Action(ctx, parentID)
		if err != nil || a == nil {
			return false, err
		}
		out, err := c.UpdateAction(ctx, parentID, types.ActionUpdate{TaskIDs: types.Ptr(edit(a.TaskIDs))})
		return out != nil, err
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownRelation, rel)
	}
}

// WatchPlans observes the plan list, loading it if needed.
func (c *Client) WatchPlans() (<-chan query.State, func()) {
	return c.cache.Subscribe(query.ListKey(types.KindPlan), func(ctx context.Context) (any, error) {
		return c.repos.Plans.List(ctx)
	})
}

// WatchPlanDetail observes one plan tree, loading it if needed. Any update
// or delete through c refetches it.
func (c *Client) WatchPlanDetail(id string) (<-chan query.State, func()) {
	return c.cache.Subscribe(query.TreeKey(types.KindPlan, id), func(ctx context.Context) (any, error) {
		return c.composer.Plan(ctx, id)
	})
}
