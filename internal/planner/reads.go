package planner

import (
	"context"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Single-entity reads, cached under <kind>/detail/<id>. An unknown id
// yields nil.

// Plan returns the plan with id.
func (c *Client) Plan(ctx context.Context, id string) (*types.Plan, error) {
	return one(ctx, c, types.KindPlan, id, c.repos.Plans.Get)
}

// Goal returns the goal with id.
func (c *Client) Goal(ctx context.Context, id string) (*types.Goal, error) {
	return one(ctx, c, types.KindGoal, id, c.repos.Goals.Get)
}

// KPI returns the KPI with id.
func (c *Client) KPI(ctx context.Context, id string) (*types.KPI, error) {
	return one(ctx, c, types.KindKPI, id, c.repos.KPIs.Get)
}

// Strategy returns the strategy with id.
func (c *Client) Strategy(ctx context.Context, id string) (*types.Strategy, error) {
	return one(ctx, c, types.KindStrategy, id, c.repos.Strategies.Get)
}

// Action returns the action with id.
func (c *Client) Action(ctx context.Context, id string) (*types.Action, error) {
	return one(ctx, c, types.KindAction, id, c.repos.Actions.Get)
}

// Task returns the task with id.
func (c *Client) Task(ctx context.Context, id string) (*types.Task, error) {
	return one(ctx, c, types.KindTask, id, c.repos.Tasks.Get)
}

// Filtered reads, cached under <kind>/list/ids=<sorted ids>. Results keep
// storage order and omit unknown ids.

// PlansByID returns the plans named by ids.
func (c *Client) PlansByID(ctx context.Context, ids []string) ([]types.Plan, error) {
	return many(ctx, c, types.KindPlan, ids, c.repos.Plans.GetMany)
}

// GoalsByID returns the goals named by ids.
func (c *Client) GoalsByID(ctx context.Context, ids []string) ([]types.Goal, error) {
	return many(ctx, c, types.KindGoal, ids, c.repos.Goals.GetMany)
}

// KPIsByID returns the KPIs named by ids, as a goal or strategy
// dashboard lists them.
func (c *Client) KPIsByID(ctx context.Context, ids []string) ([]types.KPI, error) {
	return many(ctx, c, types.KindKPI, ids, c.repos.KPIs.GetMany)
}

// StrategiesByID returns the strategies named by ids.
func (c *Client) StrategiesByID(ctx context.Context, ids []string) ([]types.Strategy, error) {
	return many(ctx, c, types.KindStrategy, ids, c.repos.Strategies.GetMany)
}

// ActionsByID returns the actions named by ids.
func (c *Client) ActionsByID(ctx context.Context, ids []string) ([]types.Action, error) {
	return many(ctx, c, types.KindAction, ids, c.repos.Actions.GetMany)
}

// TasksByID returns the tasks named by ids.
func (c *Client) TasksByID(ctx context.Context, ids []string) ([]types.Task, error) {
	return many(ctx, c, types.KindTask, ids, c.repos.Tasks.GetMany)
}

// Full collections, cached under <kind>/list.

// AllPlans returns every plan.
func (c *Client) AllPlans(ctx context.Context) ([]types.Plan, error) {
	return all(ctx, c, types.KindPlan, c.repos.Plans.List)
}

// AllGoals returns every goal.
func (c *Client) AllGoals(ctx context.Context) ([]types.Goal, error) {
	return all(ctx, c, types.KindGoal, c.repos.Goals.List)
}

// AllKPIs returns every KPI.
func (c *Client) AllKPIs(ctx context.Context) ([]types.KPI, error) {
	return all(ctx, c, types.KindKPI, c.repos.KPIs.List)
}

// AllStrategies returns every strategy.
func (c *Client) AllStrategies(ctx context.Context) ([]types.Strategy, error) {
	return all(ctx, c, types.KindStrategy, c.repos.Strategies.List)
}

// AllActions returns every action.
func (c *Client) AllActions(ctx context.Context) ([]types.Action, error) {
	return all(ctx, c, types.KindAction, c.repos.Actions.List)
}

// AllTasks returns every task.
func (c *Client) AllTasks(ctx context.Context) ([]types.Task, error) {
	return all(ctx, c, types.KindTask, c.repos.Tasks.List)
}

// Composed views, cached under <kind>/tree/<id> and built from the cached
// reads above. Any update or delete invalidates every tree.

// PlanDetail returns the plan with its goal and strategy trees, or nil
// when the plan does not exist.
func (c *Client) PlanDetail(ctx context.Context, id string) (*types.PlanDetail, error) {
	return tree(ctx, c, types.KindPlan, id, c.composer.Plan)
}

// GoalDetail returns the goal with its KPIs.
func (c *Client) GoalDetail(ctx context.Context, id string) (*types.GoalDetail, error) {
	return tree(ctx, c, types.KindGoal, id, c.composer.Goal)
}

// StrategyDetail returns the strategy with its KPIs and action trees.
func (c *Client) StrategyDetail(ctx context.Context, id string) (*types.StrategyDetail, error) {
	return tree(ctx, c, types.KindStrategy, id, c.composer.Strategy)
}

// ActionDetail returns the action with its tasks.
func (c *Client) ActionDetail(ctx context.Context, id string) (*types.ActionDetail, error) {
	return tree(ctx, c, types.KindAction, id, c.composer.Action)
}

// Export returns the plan tree from one uncached read of every kind. It
// never writes to the cache or the store.
func (c *Client) Export(ctx context.Context, planID string) (*types.PlanDetail, error) {
	return c.bulk.Plan(ctx, planID)
}

// ExportAll returns every plan tree in storage order.
func (c *Client) ExportAll(ctx context.Context) ([]types.PlanDetail, error) {
	return c.bulk.All(ctx)
}
