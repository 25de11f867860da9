package types

// Goal is a measurable target under a Plan.
type Goal struct {
	Stamp       `yaml:",inline"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	KPIIDs      []string `json:"kpiIds" yaml:"kpiIds"`
}

// GoalInput creates a Goal.
type GoalInput struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	KPIIDs      []string `json:"kpiIds,omitempty" yaml:"kpiIds,omitempty"`
}

// GoalUpdate is a partial Goal.
type GoalUpdate struct {
	Name        *string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string   `json:"description,omitempty" yaml:"description,omitempty"`
	KPIIDs      *[]string `json:"kpiIds,omitempty" yaml:"kpiIds,omitempty"`
}

func (in GoalInput) Validate() error {
	if in.Name == "" {
		return ErrInvalidName
	}
	return nil
}

func (u GoalUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// NewGoal builds the entity for a create call.
func NewGoal(s Stamp, in GoalInput) Goal {
	return Goal{
		Stamp:       s,
		Name:        in.Name,
		Description: in.Description,
		KPIIDs:      idsOrEmpty(in.KPIIDs),
	}
}

// Apply returns g with the provided fields of u merged in.
func (g Goal) Apply(u GoalUpdate) Goal {
	out := g.Clone()
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.KPIIDs != nil {
		out.KPIIDs = idsOrEmpty(*u.KPIIDs)
	}
	return out
}

// Clone returns a deep copy.
func (g Goal) Clone() Goal {
	g.KPIIDs = cloneIDs(g.KPIIDs)
	return g
}
