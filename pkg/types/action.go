package types

// Action is a unit of work under a Strategy.
type Action struct {
	Stamp       `yaml:",inline"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	TaskIDs     []string `json:"taskIds" yaml:"taskIds"`
}

// ActionInput creates an Action.
type ActionInput struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	TaskIDs     []string `json:"taskIds,omitempty" yaml:"taskIds,omitempty"`
}

// ActionUpdate is a partial Action.
type ActionUpdate struct {
	Name        *string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string   `json:"description,omitempty" yaml:"description,omitempty"`
	TaskIDs     *[]string `json:"taskIds,omitempty" yaml:"taskIds,omitempty"`
}

func (in ActionInput) Validate() error {
	if in.Name == "" {
		return ErrInvalidName
	}
	return nil
}

func (u ActionUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// NewAction builds the entity for a create call.
func NewAction(s Stamp, in ActionInput) Action {
	return Action{
		Stamp:       s,
		Name:        in.Name,
		Description: in.Description,
		TaskIDs:     idsOrEmpty(in.TaskIDs),
	}
}

// Apply returns a with the provided fields of u merged in.
func (a Action) Apply(u ActionUpdate) Action {
	out := a.Clone()
	if u.Name != nil {
		out.Name = *u.Name
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.TaskIDs != nil {
		out.TaskIDs = idsOrEmpty(*u.TaskIDs)
	}
	return out
}

// Clone returns a deep copy.
func (a Action) Clone() Action {
	a.TaskIDs = cloneIDs(a.TaskIDs)
	return a
}
