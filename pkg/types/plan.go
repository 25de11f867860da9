package types

// Plan is the top-level OGSM record: one objective, ordered goals and
// strategies.
type Plan struct {
	Stamp       `yaml:",inline"`
	Name        string   `json:"name" yaml:"name"`
	Objective   string   `json:"objective" yaml:"objective"`
	GoalIDs     []string `json:"goalIds" yaml:"goalIds"`
	StrategyIDs []string `json:"strategyIds" yaml:"strategyIds"`
}

// PlanInput creates a Plan.
type PlanInput struct {
	Name        string   `json:"name" yaml:"name"`
	Objective   string   `json:"objective" yaml:"objective"`
	GoalIDs     []string `json:"goalIds,omitempty" yaml:"goalIds,omitempty"`
	StrategyIDs []string `json:"strategyIds,omitempty" yaml:"strategyIds,omitempty"`
}

// PlanUpdate is a partial Plan.
type PlanUpdate struct {
	Name        *string   `json:"name,omitempty" yaml:"name,omitempty"`
	Objective   *string   `json:"objective,omitempty" yaml:"objective,omitempty"`
	GoalIDs     *[]string `json:"goalIds,omitempty" yaml:"goalIds,omitempty"`
	StrategyIDs *[]string `json:"strategyIds,omitempty" yaml:"strategyIds,omitempty"`
}

// Validate checks the input.
func (in PlanInput) Validate() error {
	if in.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// Validate checks the provided fields.
func (u PlanUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// NewPlan builds the entity for a create call.
func NewPlan(s Stamp, in PlanInput) Plan {
	return Plan{
		Stamp:       s,
		Name:        in.Name,
		Objective:   in.Objective,
		GoalIDs:     idsOrEmpty(in.GoalIDs),
		StrategyIDs: idsOrEmpty(in.StrategyIDs),
	}
}

// Apply returns p with the provided fields of u merged in. Timestamps are
// left alone; the repository owns them.
func (p Plan) Apply(u PlanUpdate) Plan {
	out := p.Clone()
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.Objective != nil {
		out.Objective = *u.Objective
	}
	if u.GoalIDs != nil {
		out.GoalIDs = idsOrEmpty(*u.GoalIDs)
	}
	if u.StrategyIDs != nil {
		out.StrategyIDs = idsOrEmpty(*u.StrategyIDs)
	}
	return out
}

// Clone returns a deep copy.
func (p Plan) Clone() Plan {
	p.GoalIDs = cloneIDs(p.GoalIDs)
	p.StrategyIDs = cloneIDs(p.StrategyIDs)
	return p
}
