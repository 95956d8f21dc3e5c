package cadstore

import (
	"sort"
	"strconv"
	"strings"
)

// ObjectIDSet is a set of object ids, used for affected-object reporting
// and entity selection. Order is never significant; ToSortedSlice exists
// only to give callers (and tests) a deterministic view.
type ObjectIDSet map[int64]struct{}

// NewIDSet builds a set from the given ids, deduplicating.
func NewIDSet(ids ...int64) ObjectIDSet {
	s := make(ObjectIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ObjectIDSet) Add(id int64) {
	s[id] = struct{}{}
}

func (s ObjectIDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s ObjectIDSet) Remove(id int64) {
	delete(s, id)
}

func (s ObjectIDSet) Len() int {
	return len(s)
}

// ToSortedSlice returns the set's members in ascending order.
func (s ObjectIDSet) ToSortedSlice() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Union returns a new set containing the members of s and other.
func (s ObjectIDSet) Union(other ObjectIDSet) ObjectIDSet {
	out := make(ObjectIDSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// SymmetricDifference returns the ids present in exactly one of s, other.
func (s ObjectIDSet) SymmetricDifference(other ObjectIDSet) ObjectIDSet {
	out := make(ObjectIDSet)
	for id := range s {
		if !other.Contains(id) {
			out[id] = struct{}{}
		}
	}
	for id := range other {
		if !s.Contains(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// SQLList renders the set as "(v1,v2,...)" for use in an IN clause. The
// empty set renders as "()", which callers must not issue inside an IN
// expression.
func (s ObjectIDSet) SQLList() string {
	ids := s.ToSortedSlice()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
