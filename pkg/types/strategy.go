package types

// Strategy is an approach under a Plan, holding dashboard KPIs and Actions.
type Strategy struct {
	Stamp       `yaml:",inline"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	KPIIDs      []string `json:"kpiIds" yaml:"kpiIds"`
	ActionIDs   []string `json:"actionIds" yaml:"actionIds"`
}

// StrategyInput creates a Strategy.
type StrategyInput struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	KPIIDs      []string `json:"kpiIds,omitempty" yaml:"kpiIds,omitempty"`
	ActionIDs   []string `json:"actionIds,omitempty" yaml:"actionIds,omitempty"`
}

// StrategyUpdate is a partial Strategy.
type StrategyUpdate struct {
	Name        *string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string   `json:"description,omitempty" yaml:"description,omitempty"`
	KPIIDs      *[]string `json:"kpiIds,omitempty" yaml:"kpiIds,omitempty"`
	ActionIDs   *[]string `json:"actionIds,omitempty" yaml:"actionIds,omitempty"`
}

func (in StrategyInput) Validate() error {
	if in.Name == "" {
		return ErrInvalidName
	}
	return nil
}

func (u StrategyUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// NewStrategy builds the entity for a create call.
func NewStrategy(s Stamp, in StrategyInput) Strategy {
	return Strategy{
		Stamp:       s,
		Name:        in.Name,
		Description: in.Description,
		KPIIDs:      idsOrEmpty(in.KPIIDs),
		ActionIDs:   idsOrEmpty(in.ActionIDs),
	}
}

// Apply returns st with the provided fields of u merged in.
func (st Strategy) Apply(u StrategyUpdate) Strategy {
	out := st.Clone()
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.KPIIDs != nil {
		out.KPIIDs = idsOrEmpty(*u.KPIIDs)
	}
	if u.ActionIDs != nil {
		out.ActionIDs = idsOrEmpty(*u.ActionIDs)
	}
	return out
}

// Clone returns a deep copy.
func (st Strategy) Clone() Strategy {
	st.KPIIDs = cloneIDs(st.KPIIDs)
	st.ActionIDs = cloneIDs(st.ActionIDs)
	return st
}
