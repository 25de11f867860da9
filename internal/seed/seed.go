// Package seed loads fixture plans into an empty store. Fixtures are YAML
// documents describing whole plan trees; the loader creates children
// first and then wires each parent's reference lists.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/ogsm/internal/logging"
	"github.com/mesh-intelligence/ogsm/internal/repo"
	"github.com/mesh-intelligence/ogsm/pkg/types"
)

//go:embed sample.yaml
var sampleYAML []byte

// ErrUnknownKPIRef is returned when a strategy references a KPI name that no
// goal in the same plan defines.
var ErrUnknownKPIRef = errors.New("unknown kpi reference")

// Fixture is the root of a seed document.
type Fixture struct {
	Plans []PlanFixture `yaml:"plans"`
}

type PlanFixture struct {
	Name       string            `yaml:"name"`
	Objective  string            `yaml:"objective"`
	Goals      []GoalFixture     `yaml:"goals"`
	Strategies []StrategyFixture `yaml:"strategies"`
}

type GoalFixture struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	KPIs        []KPIFixture `yaml:"kpis"`
}

// KPIFixture either defines a KPI or, with Ref set, points at a KPI defined
// by a goal of the same plan.
type KPIFixture struct {
	Ref     string  `yaml:"ref"`
	Name    string  `yaml:"name"`
	Target  float64 `yaml:"target"`
	Current float64 `yaml:"current"`
	Unit    string  `yaml:"unit"`
}

type StrategyFixture struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	KPIs        []KPIFixture    `yaml:"kpis"`
	Actions     []ActionFixture `yaml:"actions"`
}

type ActionFixture struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Tasks       []TaskFixture `yaml:"tasks"`
}

type TaskFixture struct {
	Name   string           `yaml:"name"`
	Status types.TaskStatus `yaml:"status"`
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Sample returns the built-in demo fixture.
func Sample() *Fixture {
	f, err := Parse(sampleYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded sample fixture: %v", err))
	}
	return f
}

// Result reports what Load did.
type Result struct {
	Seeded  bool               `json:"seeded"`
	Created map[types.Kind]int `json:"created"`
	PlanIDs []string           `json:"planIds"`
}

// Load creates the fixture's entities when the store holds no entities at
// all. A non-empty store is left untouched and reported with Seeded false.
func Load(ctx context.Context, repos *repo.Set, f *Fixture) (Result, error) {
	log := logging.WithComponent("seed")
	empty, err := repos.IsEmpty(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("check store: %w", err)
	}
	if !empty {
		log.Info().Msg("store already holds data, skipping seed")
		return Result{}, nil
	}

	l := &loader{repos: repos, res: Result{Seeded: true, Created: make(map[types.Kind]int)}}
	for _, p := range f.Plans {
		id, err := l.plan(ctx, p)
		if err != nil {
			return l.res, err
		}
		l.res.PlanIDs = append(l.res.PlanIDs, id)
	}
	log.Info().Int("plans", l.res.Created[types.KindPlan]).
		Int("goals", l.res.Created[types.KindGoal]).
		Int("kpis", l.res.Created[types.KindKPI]).
		Int("strategies", l.res.Created[types.KindStrategy]).
		Int("actions", l.res.Created[types.KindAction]).
		Int("tasks", l.res.Created[types.KindTask]).
		Msg("seeded store")
	return l.res, nil
}

type loader struct {
	repos *repo.Set
	res   Result
}

func (l *loader) plan(ctx context.Context, p PlanFixture) (string, error) {
	kpiByName := make(map[string]string)

	goalIDs := make([]string, 0, len(p.Goals))
	for _, g := range p.Goals {
		kpiIDs, err := l.kpis(ctx, g.KPIs, kpiByName)
		if err != nil {
			return "", err
		}
		goal, err := l.repos.Goals.Create(ctx, types.GoalInput{Name: g.Name, Description: g.Description, KPIIDs: kpiIDs})
		if err != nil {
			return "", err
		}
		l.res.Created[types.KindGoal]++
		goalIDs = append(goalIDs, goal.ID)
	}

	strategyIDs := make([]string, 0, len(p.Strategies))
	for _, s := range p.Strategies {
		kpiIDs, err := l.kpis(ctx, s.KPIs, kpiByName)
		if err != nil {
			return "", fmt.Errorf("strategy %q: %w", s.Name, err)
		}
		actionIDs := make([]string, 0, len(s.Actions))
		for _, a := range s.Actions {
			id, err := l.action(ctx, a)
			if err != nil {
				return "", err
			}
			actionIDs = append(actionIDs, id)
		}
		st, err := l.repos.Strategies.Create(ctx, types.StrategyInput{
			Name:        s.Name,
			Description: s.Description,
			KPIIDs:      kpiIDs,
			ActionIDs:   actionIDs,
		})
		if err != nil {
			return "", err
		}
		l.res.Created[types.KindStrategy]++
		strategyIDs = append(strategyIDs, st.ID)
	}

	plan, err := l.repos.Plans.Create(ctx, types.PlanInput{
		Name:        p.Name,
		Objective:   p.Objective,
		GoalIDs:     goalIDs,
		StrategyIDs: strategyIDs,
	})
	if err != nil {
		return "", err
	}
	l.res.Created[types.KindPlan]++
	return plan.ID, nil
}

func (l *loader) kpis(ctx context.Context, fixtures []KPIFixture, byName map[string]string) ([]string, error) {
	ids := make([]string, 0, len(fixtures))
	for _, k := range fixtures {
		if k.Ref != "" {
			id, ok := byName[k.Ref]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownKPIRef, k.Ref)
			}
			ids = append(ids, id)
			continue
		}
		kpi, err := l.repos.KPIs.Create(ctx, types.KPIInput{Name: k.Name, Target: k.Target, Current: k.Current, Unit: k.Unit})
		if err != nil {
			return nil, err
		}
		l.res.Created[types.KindKPI]++
		byName[k.Name] = kpi.ID
		ids = append(ids, kpi.ID)
	}
	return ids, nil
}

func (l *loader) action(ctx context.Context, a ActionFixture) (string, error) {
	taskIDs := make([]string, 0, len(a.Tasks))
	for _, t := range a.Tasks {
		task, err := l.repos.Tasks.Create(ctx, types.TaskInput{Name: t.Name, Status: t.Status})
		if err != nil {
			return "", err
		}
		l.res.Created[types.KindTask]++
		taskIDs = append(taskIDs, task.ID)
	}
	action, err := l.repos.Actions.Create(ctx, types.ActionInput{Name: a.Name, Description: a.Description, TaskIDs: taskIDs})
	if err != nil {
		return "", err
	}
	l.res.Created[types.KindAction]++
	return action.ID, nil
}
