package executor

import "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"

// DocSet is an unordered set of document ids.
type DocSet map[string]struct{}

// NewDocSet returns a set holding ids.
func NewDocSet(ids ...string) DocSet {
	s := make(DocSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s DocSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s DocSet) Len() int {
	return len(s)
}

// Sorted returns the ids in natural order.
func (s DocSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	ingestion.SortIDs(ids)
	return ids
}

// Equal reports whether both sets hold the same ids.
func (s DocSet) Equal(other DocSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Intersect returns the ids present in both sets. It walks the smaller set.
func Intersect(a, b DocSet) DocSet {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(DocSet, len(a))
	for id := range a {
		if b.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Union returns the ids present in either set.
func Union(a, b DocSet) DocSet {
	out := make(DocSet, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}

// Difference returns the ids of a that are not in b.
func Difference(a, b DocSet) DocSet {
	out := make(DocSet, len(a))
	for id := range a {
		if !b.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}
