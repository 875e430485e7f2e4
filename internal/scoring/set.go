package scoring

import (
	"encoding/json"
	"slices"

	"github.com/samber/lo"
)

// IntSet is a set of positions or container ids. It encodes as a sorted JSON array so
// snapshots are stable byte for byte.
type IntSet map[int]struct{}

func NewIntSet(items ...int) IntSet {
	s := make(IntSet, len(items))
	s.Add(items...)
	return s
}

func (s IntSet) Add(items ...int) {
	for _, v := range items {
		s[v] = struct{}{}
	}
}

func (s IntSet) AddAll(other IntSet) {
	for v := range other {
		s[v] = struct{}{}
	}
}

func (s IntSet) Remove(v int) {
	delete(s, v)
}

func (s IntSet) Has(v int) bool {
	_, ok := s[v]
	return ok
}

func (s IntSet) Len() int {
	return len(s)
}

func (s IntSet) Sorted() []int {
	keys := lo.Keys(s)
	slices.Sort(keys)
	return keys
}

func (s IntSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IntSet) UnmarshalJSON(data []byte) error {
	var items []int
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewIntSet(items...)
	return nil
}
