// Package prune removes fields from decoded documents by key name.
package prune

import (
	"slices"

	"github.com/calumari/bsonwalk"
)

// Rules selects the keys removed by a prune. Keys listed in both sets are
// preserved. The zero value removes nothing.
type Rules struct {
	remove   map[string]struct{}
	preserve map[string]struct{}
}

// NewRules builds Rules from the names to remove and the names to keep.
// Matching is exact and case-sensitive.
func NewRules(remove, preserve []string) Rules {
	r := Rules{
		remove:   make(map[string]struct{}, len(remove)),
		preserve: make(map[string]struct{}, len(preserve)),
	}
	for _, k := range remove {
		r.remove[k] = struct{}{}
	}
	for _, k := range preserve {
		r.preserve[k] = struct{}{}
	}
	return r
}

// DefaultRules removes "elements" and "pets" and keeps "music". These
// names come from sample UGC records and should be confirmed against the
// data being edited; callers can override them from configuration.
func DefaultRules() Rules {
	return NewRules([]string{"elements", "pets"}, []string{"music"})
}

// Removes reports whether key is dropped under r.
func (r Rules) Removes(key string) bool {
	if _, ok := r.preserve[key]; ok {
		return false
	}
	_, ok := r.remove[key]
	return ok
}

// Removed returns the removal names, sorted.
func (r Rules) Removed() []string {
	return sortedKeys(r.remove)
}

// Preserved returns the preserved names, sorted.
func (r Rules) Preserved() []string {
	return sortedKeys(r.preserve)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Document returns a copy of doc with every key removed by rules dropped,
// at any depth. doc is left untouched.
func Document(doc bsonwalk.Document, rules Rules) bsonwalk.Document {
	if doc == nil {
		return nil
	}
	out := make(bsonwalk.Document, 0, len(doc))
	for _, e := range doc {
		if rules.Removes(e.Key) {
			continue
		}
		out = append(out, bsonwalk.Entry{Key: e.Key, Value: Value(e.Value, rules)})
	}
	return out
}

// Value prunes every document reachable from v, including documents held in
// arrays. Values other than Document and Array are returned as is.
func Value(v any, rules Rules) any {
	switch val := v.(type) {
	case bsonwalk.Document:
		return Document(val, rules)
	case bsonwalk.Array:
		if val == nil {
			return val
		}
		out := make(bsonwalk.Array, len(val))
		for i, elem := range val {
			out[i] = Value(elem, rules)
		}
		return out
	default:
		return v
	}
}

// Count reports how often each removable key occurs in v, at any depth.
// Occurrences nested under another removable key are counted too.
func Count(v any, rules Rules) map[string]int {
	counts := make(map[string]int)
	_ = bsonwalk.Walk(v, func(_ []string, v any) error {
		doc, ok := v.(bsonwalk.Document)
		if !ok {
			return nil
		}
		for _, e := range doc {
			if rules.Removes(e.Key) {
				counts[e.Key]++
			}
		}
		return nil
	})
	return counts
}
