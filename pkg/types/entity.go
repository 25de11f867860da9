package types

import "time"

// Entity is implemented by every stored entity kind.
type Entity interface {
	EntityID() string
}

// Ptr returns a pointer to v. It keeps update literals short:
//
//	types.GoalUpdate{Name: types.Ptr("Grow revenue")}
func Ptr[T any](v T) *T {
	return &v
}

// cloneIDs copies a reference list so snapshots never share backing arrays.
// A nil list stays nil.
func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// idsOrEmpty returns a non-nil list so persisted reference lists are always
// JSON arrays.
func idsOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return cloneIDs(ids)
}

// Stamp records identity and lifecycle timestamps.
type Stamp struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// EntityID returns the identifier.
func (s Stamp) EntityID() string { return s.ID }
