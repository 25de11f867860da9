package repo

import (
	"context"
	"time"

	"github.com/mesh-intelligence/ogsm/internal/store"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Plans stores Plan records under ogsm.plans.v1.
type Plans struct {
	*table[types.Plan, types.PlanInput, types.PlanUpdate]
}

// Goals stores Goal records under ogsm.goals.v1.
type Goals struct {
	*table[types.Goal, types.GoalInput, types.GoalUpdate]
}

// KPIs stores KPI records under ogsm.kpis.v1.
type KPIs struct {
	*table[types.KPI, types.KPIInput, types.KPIUpdate]
}

// Strategies stores Strategy records under ogsm.strategies.v1.
type Strategies struct {
	*table[types.Strategy, types.StrategyInput, types.StrategyUpdate]
}

// Actions stores Action records under ogsm.actions.v1.
type Actions struct {
	*table[types.Action, types.ActionInput, types.ActionUpdate]
}

// Tasks stores Task records under ogsm.tasks.v1.
type Tasks struct {
	*table[types.Task, types.TaskInput, types.TaskUpdate]
}

// NewPlans returns the plan repository over d.
func NewPlans(d *store.Durable, opts Options) *Plans {
	return &Plans{newTable(types.KindPlan, d, opts.withDefaults(),
		types.NewPlan, types.Plan.Apply,
		func(p types.Plan) types.Stamp { return p.Stamp },
		func(p types.Plan, at time.Time) types.Plan { p.UpdatedAt = at; return p },
	)}
}

// NewGoals returns the goal repository over d.
func NewGoals(d *store.Durable, opts Options) *Goals {
	return &Goals{newTable(types.KindGoal, d, opts.withDefaults(),
		types.NewGoal, types.Goal.Apply,
		func(g types.Goal) types.Stamp { return g.Stamp },
		func(g types.Goal, at time.Time) types.Goal { g.UpdatedAt = at; return g },
	)}
}

// NewKPIs returns the KPI repository over d.
func NewKPIs(d *store.Durable, opts Options) *KPIs {
	return &KPIs{newTable(types.KindKPI, d, opts.withDefaults(),
		types.NewKPI, types.KPI.Apply,
		func(k types.KPI) types.Stamp { return k.Stamp },
		func(k types.KPI, at time.Time) types.KPI { k.UpdatedAt = at; return k },
	)}
}

// NewStrategies returns the strategy repository over d.
func NewStrategies(d *store.Durable, opts Options) *Strategies {
	return &Strategies{newTable(types.KindStrategy, d, opts.withDefaults(),
		types.NewStrategy, types.Strategy.Apply,
		func(s types.Strategy) types.Stamp { return s.Stamp },
		func(s types.Strategy, at time.Time) types.Strategy { s.UpdatedAt = at; return s },
	)}
}

// NewActions returns the action repository over d.
func NewActions(d *store.Durable, opts Options) *Actions {
	return &Actions{newTable(types.KindAction, d, opts.withDefaults(),
		types.NewAction, types.Action.Apply,
		func(a types.Action) types.Stamp { return a.Stamp },
		func(a types.Action, at time.Time) types.Action { a.UpdatedAt = at; return a },
	)}
}

// NewTasks returns the task repository over d. New tasks default to
// pending.
func NewTasks(d *store.Durable, opts Options) *Tasks {
	return &Tasks{newTable(types.KindTask, d, opts.withDefaults(),
		types.NewTask, types.Task.Apply,
		func(t types.Task) types.Stamp { return t.Stamp },
		func(t types.Task, at time.Time) types.Task { t.UpdatedAt = at; return t },
	)}
}

// ListByStatus returns the tasks in status, in storage order.
func (r *Tasks) ListByStatus(ctx context.Context, status types.TaskStatus) ([]types.Task, error) {
	if !status.Valid() {
		return nil, &types.OpError{Op: types.OpFetch, Kind: types.KindTask, Err: types.ErrInvalidStatus}
	}
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Task, 0, len(all))
	for _, t := range all {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

// Set bundles one repository per kind over a shared store.
type Set struct {
	Plans      *Plans
	Goals      *Goals
	KPIs       *KPIs
	Strategies *Strategies
	Actions    *Actions
	Tasks      *Tasks

	store *store.Durable
}

// NewSet builds all six repositories over d.
func NewSet(d *store.Durable, opts Options) *Set {
	return &Set{
		Plans:      NewPlans(d, opts),
		Goals:      NewGoals(d, opts),
		KPIs:       NewKPIs(d, opts),
		Strategies: NewStrategies(d, opts),
		Actions:    NewActions(d, opts),
		Tasks:      NewTasks(d, opts),
		store:      d,
	}
}

// Store returns the underlying durable store.
func (s *Set) Store() *store.Durable { return s.store }

// Clear wipes every entity key.
func (s *Set) Clear(ctx context.Context) error { return s.store.Clear(ctx) }

// IsEmpty reports whether the store holds no entities at all.
func (s *Set) IsEmpty(ctx context.Context) (bool, error) { return s.store.IsEmpty(ctx) }

// Source adapters used by detail composition.

// Plan returns the plan with id, or nil.
func (s *Set) Plan(ctx context.Context, id string) (*types.Plan, error) {
	return s.Plans.Get(ctx, id)
}

// Goal returns the goal with id, or nil.
func (s *Set) Goal(ctx context.Context, id string) (*types.Goal, error) {
	return s.Goals.Get(ctx, id)
}

// Strategy returns the strategy with id, or nil.
func (s *Set) Strategy(ctx context.Context, id string) (*types.Strategy, error) {
	return s.Strategies.Get(ctx, id)
}

// Action returns the action with id, or nil.
func (s *Set) Action(ctx context.Context, id string) (*types.Action, error) {
	return s.Actions.Get(ctx, id)
}

// GoalsByID returns the goals named by ids in storage order.
func (s *Set) GoalsByID(ctx context.Context, ids []string) ([]types.Goal, error) {
	return s.Goals.GetMany(ctx, ids)
}

// KPIsByID returns the KPIs named by ids in storage order.
func (s *Set) KPIsByID(ctx context.Context, ids []string) ([]types.KPI, error) {
	return s.KPIs.GetMany(ctx, ids)
}

// StrategiesByID returns the strategies named by ids in storage order.
func (s *Set) StrategiesByID(ctx context.Context, ids []string) ([]types.Strategy, error) {
	return s.Strategies.GetMany(ctx, ids)
}

// ActionsByID returns the actions named by ids in storage order.
func (s *Set) ActionsByID(ctx context.Context, ids []string) ([]types.Action, error) {
	return s.Actions.GetMany(ctx, ids)
}

// TasksByID returns the tasks named by ids in storage order.
func (s *Set) TasksByID(ctx context.Context, ids []string) ([]types.Task, error) {
	return s.Tasks.GetMany(ctx, ids)
}

// AllPlans lists every plan.
func (s *Set) AllPlans(ctx context.Context) ([]types.Plan, error) { return s.Plans.List(ctx) }

// AllGoals lists every goal.
func (s *Set) AllGoals(ctx context.Context) ([]types.Goal, error) { return s.Goals.List(ctx) }

// AllKPIs lists every KPI.
func (s *Set) AllKPIs(ctx context.Context) ([]types.KPI, error) { return s.KPIs.List(ctx) }

// AllStrategies lists every strategy.
func (s *Set) AllStrategies(ctx context.Context) ([]types.Strategy, error) {
	return s.Strategies.List(ctx)
}

// AllActions lists every action.
func (s *Set) AllActions(ctx context.Context) ([]types.Action, error) { return s.Actions.List(ctx) }

// AllTasks lists every task.
func (s *Set) AllTasks(ctx context.Context) ([]types.Task, error) { return s.Tasks.List(ctx) }
