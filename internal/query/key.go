package query

import (
	"slices"
	"strings"

	"github.com/mesh-intelligence/ogsm/pkg/types"
)

// Scope separates cache namespaces within a kind. Entries in different
// scopes never collide.
type Scope string

const (
	// ScopeList holds collections: all entities or a filtered subset.
	ScopeList Scope = "list"
	// ScopeDetail holds single entities by id.
	ScopeDetail Scope = "detail"
	// ScopeTree holds composed detail views rooted at an entity.
	ScopeTree Scope = "tree"
)

// Key identifies one cache entry.
type Key struct {
	Kind   types.Kind
	Scope  Scope
	Params string
}

// String renders the key as <kind>/<scope>[/<params>].
func (k Key) String() string {
	s := string(k.Kind) + "/" + string(k.Scope)
	if k.Params != "" {
		s += "/" + k.Params
	}
	return s
}

// ListKey addresses the full collection of kind.
func ListKey(kind types.Kind) Key {
	return Key{Kind: kind, Scope: ScopeList}
}

// IDsKey addresses the subset of kind with the given ids. The ids are
// sorted so equal sets share an entry.
func IDsKey(kind types.Kind, ids []string) Key {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return Key{Kind: kind, Scope: ScopeList, Params: "ids=" + strings.Join(sorted, ",")}
}

// DetailKey addresses a single entity.
func DetailKey(kind types.Kind, id string) Key {
	return Key{Kind: kind, Scope: ScopeDetail, Params: id}
}

// TreeKey addresses a composed view rooted at id.
func TreeKey(kind types.Kind, id string) Key {
	return Key{Kind: kind, Scope: ScopeTree, Params: id}
}

// Filter selects entries. Zero fields match anything unless ExactParams
// is set, in which case Params must match even when empty.
type Filter struct {
	Kind        types.Kind
	Scope       Scope
	Params      string
	ExactParams bool
}

// Match reports whether k satisfies f.
func (f Filter) Match(k Key) bool {
	if f.Kind != "" && f.Kind != k.Kind {
		return false
	}
	if f.Scope != "" && f.Scope != k.Scope {
		return false
	}
	if (f.ExactParams || f.Params != "") && f.Params != k.Params {
		return false
	}
	return true
}

// Exact returns a filter matching only k.
func Exact(k Key) Filter {
	return Filter{Kind: k.Kind, Scope: k.Scope, Params: k.Params, ExactParams: true}
}

// Lists matches every list entry of kind, filtered or not.
func Lists(kind types.Kind) Filter {
	return Filter{Kind: kind, Scope: ScopeList}
}

// Trees matches every composed view regardless of root kind.
func Trees() Filter {
	return Filter{Scope: ScopeTree}
}
