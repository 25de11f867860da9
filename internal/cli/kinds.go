package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/ogsm/internal/planner"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// kindOps is the untyped command surface for one entity kind. Single-entity
// lookups return a nil value when the id is unknown.
type kindOps struct {
	list   func(context.Context, *planner.Client) (any, error)
	get    func(context.Context, *planner.Client, string) (any, error)
	create func(context.Context, *planner.Client, []byte) (any, error)
	update func(context.Context, *planner.Client, string, []byte) (any, error)
	remove func(context.Context, *planner.Client, string) (bool, error)
	// tree is nil for leaf kinds.
	tree func(context.Context, *planner.Client, string) (any, error)
}

type handlers[T, In, U any] struct {
	list   func(*planner.Client, context.Context) ([]T, error)
	get    func(*planner.Client, context.Context, string) (*T, error)
	create func(*planner.Client, context.Context, In) (T, error)
	update func(*planner.Client, context.Context, string, U) (*T, error)
	remove func(*planner.Client, context.Context, string) (bool, error)
}

func (h handlers[T, In, U]) ops() kindOps {
	return kindOps{
		list: func(ctx context.Context, p *planner.Client) (any, error) {
			return h.list(p, ctx)
		},
		get: func(ctx context.Context, p *planner.Client, id string) (any, error) {
			return orNil(h.get(p, ctx, id))
		},
		create: func(ctx context.Context, p *planner.Client, data []byte) (any, error) {
			in, err := decodeStrict[In](data)
			if err != nil {
				return nil, err
			}
			return h.create(p, ctx, in)
		},
		update: func(ctx context.Context, p *planner.Client, id string, data []byte) (any, error) {
			u, err := decodeStrict[U](data)
			if err != nil {
				return nil, err
			}
			return orNil(h.update(p, ctx, id, u))
		},
		remove: func(ctx context.Context, p *planner.Client, id string) (bool, error) {
			return h.remove(p, ctx, id)
		},
	}
}

// orNil keeps a nil *T from turning into a non-nil interface.
func orNil[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

// treeOf adapts a composition read to kindOps.tree.
func treeOf[T any](fn func(*planner.Client, context.Context, string) (*T, error)) func(context.Context, *planner.Client, string) (any, error) {
	return func(ctx context.Context, p *planner.Client, id string) (any, error) {
		return orNil(fn(p, ctx, id))
	}
}

// decodeStrict parses a JSON payload, rejecting unknown fields.
func decodeStrict[T any](data []byte) (T, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, userErr(fmt.Errorf("parse JSON: %w", err))
	}
	return v, nil
}

var registry = map[types.Kind]kindOps{}

func init() {
	plans := handlers[types.Plan, types.PlanInput, types.PlanUpdate]{
		list:   (*planner.Client).AllPlans,
		get:    (*planner.Client).Plan,
		create: (*planner.Client).CreatePlan,
		update: (*planner.Client).UpdatePlan,
		remove: (*planner.Client).DeletePlan,
	}.ops()
	plans.tree = treeOf((*planner.Client).PlanDetail)

	goals := handlers[types.Goal, types.GoalInput, types.GoalUpdate]{
		list:   (*planner.Client).AllGoals,
		get:    (*planner.Client).Goal,
		create: (*planner.Client).CreateGoal,
		update: (*planner.Client).UpdateGoal,
		remove: (*planner.Client).DeleteGoal,
	}.ops()
	goals.tree = treeOf((*planner.Client).GoalDetail)

	strategies := handlers[types.Strategy, types.StrategyInput, types.StrategyUpdate]{
		list:   (*planner.Client).AllStrategies,
		get:    (*planner.Client).Strategy,
		create: (*planner.Client).CreateStrategy,
		update: (*planner.Client).UpdateStrategy,
		remove: (*planner.Client).DeleteStrategy,
	}.ops()
	strategies.tree = treeOf((*planner.Client).StrategyDetail)

	actions := handlers[types.Action, types.ActionInput, types.ActionUpdate]{
		list:   (*planner.Client).AllActions,
		get:    (*planner.Client).Action,
		create: (*planner.Client).CreateAction,
		update: (*planner.Client).UpdateAction,
		remove: (*planner.Client).DeleteAction,
	}.ops()
	actions.tree = treeOf((*planner.Client).ActionDetail)

	registry[types.KindPlan] = plans
	registry[types.KindGoal] = goals
	registry[types.KindStrategy] = strategies
	registry[types.KindAction] = actions
	registry[types.KindKPI] = handlers[types.KPI, types.KPIInput, types.KPIUpdate]{
		list:   (*planner.Client).AllKPIs,
		get:    (*planner.Client).KPI,
		create: (*planner.Client).CreateKPI,
		update: (*planner.Client).UpdateKPI,
		remove: (*planner.Client).DeleteKPI,
	}.ops()
	registry[types.KindTask] = handlers[types.Task, types.TaskInput, types.TaskUpdate]{
		list:   (*planner.Client).AllTasks,
		get:    (*planner.Client).Task,
		create: (*planner.Client).CreateTask,
		update: (*planner.Client).UpdateTask,
		remove: (*planner.Client).DeleteTask,
	}.ops()
}

// lookupKind resolves a kind argument to its operations.
func lookupKind(arg string) (types.Kind, kindOps, error) {
	k, err := types.ParseKind(arg)
	if err != nil {
		names := make([]string, len(types.Kinds))
		for i, k := range types.Kinds {
			names[i] = string(k)
		}
		return "", kindOps{}, userErr(fmt.Errorf("%w (valid: %s)", err, strings.Join(names, ", ")))
	}
	return k, registry[k], nil
}
