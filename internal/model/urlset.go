package model

// URLSet is an insertion-ordered set of URL strings.
// Members are never removed, so Len is monotonically non-decreasing.
//
// Design decision: We keep insertion order because:
//  1. The crawl output lists product URLs in the order they were found
//  2. Identical inputs produce byte-identical output files
//  3. Tests can compare slices instead of sorting first
type URLSet struct {
	index  map[string]struct{}
	values []string
}

// NewURLSet returns an empty set, optionally seeded with values.
func NewURLSet(values ...string) *URLSet {
	s := &URLSet{index: make(map[string]struct{}, len(values))}
	s.AddAll(values...)
	return s
}

// Add inserts u and reports whether it was not already present.
func (s *URLSet) Add(u string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[u]; ok {
		return false
	}
	s.index[u] = struct{}{}
	s.values = append(s.values, u)
	return true
}

// AddAll inserts every value and returns how many were new.
func (s *URLSet) AddAll(values ...string) int {
	added := 0
	for _, v := range values {
		if s.Add(v) {
			added++
		}
	}
	return added
}

// Has reports whether u is a member.
func (s *URLSet) Has(u string) bool {
	_, ok := s.index[u]
	return ok
}

// Len returns the number of members.
func (s *URLSet) Len() int {
	return len(s.values)
}

// Values returns a copy of the members in insertion order.
func (s *URLSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}
