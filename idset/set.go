// Package idset provides a small generic set type for identifiers (within
// this module: a voting session's participant model IDs) without pulling
// in a full collection library.
package idset

import (
	"encoding/json"
	"sort"

	"golang.org/x/exp/maps"
)

// minSetSize is the minimum capacity allocated for a non-empty set.
const minSetSize = 8

// Set is a set of comparable identifiers (model IDs, proposal IDs, ...).
type Set[T comparable] map[T]struct{}

// Of returns a Set initialized with elts.
func Of[T comparable](elts ...T) Set[T] {
	s := New[T](len(elts))
	s.Add(elts...)
	return s
}

// New returns a new set with initial capacity size.
func New[T comparable](size int) Set[T] {
	if size < 0 {
		return Set[T]{}
	}
	return make(map[T]struct{}, size)
}

func (s *Set[T]) resize(size int) {
	if *s == nil {
		if size < minSetSize {
			size = minSetSize
		}
		*s = make(map[T]struct{}, size)
	}
}

// Add inserts elts into the set. Duplicates are no-ops.
func (s *Set[T]) Add(elts ...T) {
	s.resize(2 * len(elts))
	for _, elt := range elts {
		(*s)[elt] = struct{}{}
	}
}

// Contains reports whether elt is in the set.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Remove deletes elts from the set.
func (s *Set[T]) Remove(elts ...T) {
	for _, elt := range elts {
		delete(*s, elt)
	}
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// List returns the set's elements in unspecified order.
func (s Set[T]) List() []T {
	return maps.Keys(s)
}

// Equals reports whether s and other contain the same elements.
func (s Set[T]) Equals(other Set[T]) bool {
	return maps.Equal(s, other)
}

// SortedList returns the set's elements as a list ordered by less.
func SortedList[T comparable](s Set[T], less func(a, b T) bool) []T {
	l := s.List()
	sort.Slice(l, func(i, j int) bool { return less(l[i], l[j]) })
	return l
}

func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *Set[T]) UnmarshalJSON(b []byte) error {
	var lst []T
	if err := json.Unmarshal(b, &lst); err != nil {
		return err
	}
	*s = make(map[T]struct{}, minSetSize)
	for _, elt := range lst {
		(*s)[elt] = struct{}{}
	}
	return nil
}
