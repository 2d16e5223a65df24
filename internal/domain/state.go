package domain

import "sort"

// NotifiedSet is the durable record of paper IDs that have already been
// notified. IDs are only ever added; the pipeline is the sole mutator.
type NotifiedSet struct {
	ids map[string]struct{}
}

// NewNotifiedSet builds a set seeded with the given IDs.
func NewNotifiedSet(ids ...string) *NotifiedSet {
	set := &NotifiedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// Add records a paper ID as notified.
func (s *NotifiedSet) Add(id string) {
	if s.ids == nil {
		s.ids = map[string]struct{}{}
	}
	s.ids[id] = struct{}{}
}

// Contains reports whether the ID has already been notified.
func (s *NotifiedSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of notified IDs.
func (s *NotifiedSet) Len() int {
	return len(s.ids)
}

// SortedIDs returns all IDs in lexical order. The slice is never nil, so
// an empty set serializes as an empty list rather than null.
func (s *NotifiedSet) SortedIDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
