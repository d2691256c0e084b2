// Package diff compares two record snapshots type by type, ignoring value order
// and duplicates.
package diff

import (
	"github.com/acorn-io/dnswatch/pkg/model"
	"golang.org/x/exp/maps"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Diff is the set of record types whose values differ between two snapshots.
type Diff map[string]model.TypeChange

func (d Diff) Empty() bool {
	return len(d) == 0
}

// Types returns the changed record types in sorted order.
func (d Diff) Types() []string {
	return sets.NewString(maps.Keys(d)...).List()
}

// Differ compares snapshots. The zero value compares the union of record types
// of both snapshots, so a type that disappears entirely counts as a change.
type Differ struct {
	// CurrentKeysOnly restricts the comparison to the types present in the
	// current snapshot. A type removed entirely is then not reported.
	CurrentKeysOnly bool
}

var defaultDiffer = Differ{}

// Changed reports whether prev and cur differ for any record type.
func Changed(prev, cur model.Snapshot) bool {
	return defaultDiffer.Changed(prev, cur)
}

// Compute returns every changed record type with its added and removed values.
func Compute(prev, cur model.Snapshot) Diff {
	return defaultDiffer.Compute(prev, cur)
}

func (d Differ) Changed(prev, cur model.Snapshot) bool {
	for _, t := range d.types(prev, cur) {
		if !sets.NewString(prev.Values(t)...).Equal(sets.NewString(cur.Values(t)...)) {
			return true
		}
	}
	return false
}

func (d Differ) Compute(prev, cur model.Snapshot) Diff {
	result := Diff{}
	for _, t := range d.types(prev, cur) {
		before := sets.NewString(prev.Values(t)...)
		after := sets.NewString(cur.Values(t)...)
		if before.Equal(after) {
			continue
		}
		result[t] = model.TypeChange{
			Added:   after.Difference(before).List(),
			Removed: before.Difference(after).List(),
		}
	}
	return result
}

func (d Differ) types(prev, cur model.Snapshot) []string {
	keys := sets.NewString(maps.Keys(cur)...)
	if !d.CurrentKeysOnly {
		keys.Insert(maps.Keys(prev)...)
	}
	return keys.List()
}
