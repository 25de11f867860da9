package types

// KPI is a named metric with a current value and a target value.
type KPI struct {
	Stamp   `yaml:",inline"`
	Name    string  `json:"name" yaml:"name"`
	Target  float64 `json:"target" yaml:"target"`
	Current float64 `json:"current" yaml:"current"`
	Unit    string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// KPIInput creates a KPI.
type KPIInput struct {
	Name    string  `json:"name" yaml:"name"`
	Target  float64 `json:"target" yaml:"target"`
	Current float64 `json:"current" yaml:"current"`
	Unit    string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// KPIUpdate is a partial KPI.
type KPIUpdate struct {
	Name    *string  `json:"name,omitempty" yaml:"name,omitempty"`
	Target  *float64 `json:"target,omitempty" yaml:"target,omitempty"`
	Current *float64 `json:"current,omitempty" yaml:"current,omitempty"`
	Unit    *string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

func (in KPIInput) Validate() error {
	if in.Name == "" {
		return ErrInvalidName
	}
	return nil
}

func (u KPIUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// NewKPI builds the entity for a create call.
func NewKPI(s Stamp, in KPIInput) KPI {
	return KPI{Stamp: s, Name: in.Name, Target: in.Target, Current: in.Current, Unit: in.Unit}
}

// Apply returns k with the provided fields of u merged in.
func (k KPI) Apply(u KPIUpdate) KPI {
	if u.Name != nil {
		k.Name = *u.Name
	}
	if u.Target != nil {
		k.Target = *u.Target
	}
	if u.Current != nil {
		k.Current = *u.Current
	}
	if u.Unit != nil {
		k.Unit = *u.Unit
	}
	return k
}

// Clone returns a copy. KPIs hold no reference lists.
func (k KPI) Clone() KPI { return k }

// Progress returns Current as a fraction of Target, or 0 when Target is 0.
func (k KPI) Progress() float64 {
	if k.Target == 0 {
		return 0
	}
	return k.Current / k.Target
}
