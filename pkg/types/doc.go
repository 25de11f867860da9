// Package types defines the OGSM entity types, their create and update inputs,
// the composed detail views, storage keys, configuration, and the standard
// errors shared by the store, repository, and cache layers.
//
// Entities are value snapshots. Update inputs use pointer fields: a nil field
// is omitted and left untouched, a non-nil field replaces the prior value
// (slices are replaced whole, never appended to).
package types
