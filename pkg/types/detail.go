package types

// GoalDetail is a Goal with its KPIs resolved in goal order.
type GoalDetail struct {
	Goal `yaml:",inline"`
	KPIs []KPI `json:"kpis" yaml:"kpis"`
}

// ActionDetail is an Action with its Tasks resolved in action order.
type ActionDetail struct {
	Action `yaml:",inline"`
	Tasks  []Task `json:"tasks" yaml:"tasks"`
}

// StrategyDetail is a Strategy with dashboard KPIs and Action trees resolved.
type StrategyDetail struct {
	Strategy `yaml:",inline"`
	KPIs     []KPI          `json:"kpis" yaml:"kpis"`
	Actions  []ActionDetail `json:"actions" yaml:"actions"`
}

// PlanDetail is a Plan with its full goal and strategy trees resolved.
type PlanDetail struct {
	Plan       `yaml:",inline"`
	Goals      []GoalDetail     `json:"goals" yaml:"goals"`
	Strategies []StrategyDetail `json:"strategies" yaml:"strategies"`
}

// IDs returns every entity id in the tree, grouped by kind. Each group keeps
// tree order.
func (d PlanDetail) IDs() map[Kind][]string {
	out := map[Kind][]string{KindPlan: {d.ID}}
	for _, g := range d.Goals {
		out[KindGoal] = append(out[KindGoal], g.ID)
		for _, k := range g.KPIs {
			out[KindKPI] = append(out[KindKPI], k.ID)
		}
	}
	for _, s := range d.Strategies {
		out[KindStrategy] = append(out[KindStrategy], s.ID)
		for _, k := range s.KPIs {
			out[KindKPI] = append(out[KindKPI], k.ID)
		}
		for _, a := range s.Actions {
			out[KindAction] = append(out[KindAction], a.ID)
			for _, t := range a.Tasks {
				out[KindTask] = append(out[KindTask], t.ID)
			}
		}
	}
	return out
}
