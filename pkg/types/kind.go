package types

import "fmt"

// Kind names one of the six entity kinds.
type Kind string

// Entity kinds.
const (
	KindPlan     Kind = "plan"
	KindGoal     Kind = "goal"
	KindKPI      Kind = "kpi"
	KindStrategy Kind = "strategy"
	KindAction   Kind = "action"
	KindTask     Kind = "task"
)

// Kinds lists every entity kind in dependency order (parents first).
var Kinds = []Kind{KindPlan, KindGoal, KindKPI, KindStrategy, KindAction, KindTask}

// SchemaVersion is embedded in every storage key. Bump it when the persisted
// layout changes incompatibly; old keys are then ignored rather than misread.
const SchemaVersion = 1

// plural is the collection name used in storage keys and cache keys.
var plural = map[Kind]string{
	KindPlan:     "plans",
	KindGoal:     "goals",
	KindKPI:      "kpis",
	KindStrategy: "strategies",
	KindAction:   "actions",
	KindTask:     "tasks",
}

// Plural returns the collection name for the kind ("goals", "strategies").
func (k Kind) Plural() string {
	if p, ok := plural[k]; ok {
		return p
	}
	return string(k) + "s"
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := plural[k]
	return ok
}

// StorageKey returns the versioned durable-store key holding every entity of
// the kind, e.g. "ogsm.goals.v1".
func StorageKey(k Kind) string {
	return fmt.Sprintf("ogsm.%s.v%d", k.Plural(), SchemaVersion)
}

// StorageKeys returns the storage keys of all kinds.
func StorageKeys() []string {
	keys := make([]string, len(Kinds))
	for i, k := range Kinds {
		keys[i] = StorageKey(k)
	}
	return keys
}

// ParseKind resolves a kind from its singular or plural name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == string(k) || s == k.Plural() {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
