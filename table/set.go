package table

import "iter"

// Set is a hash set built on Map. The zero value is an empty set.
type Set[K comparable, H Hasher[K]] struct {
	m Map[K, struct{}, H]
}

func NewSet[K comparable, H Hasher[K]](hasher H, capacity ...int) *Set[K, H] {
	return &Set[K, H]{m: *NewMap[K, struct{}](hasher, capacity...)}
}

// Insert adds val and reports whether it was not already present.
func (s *Set[K, H]) Insert(val K) bool {
	_, replaced := s.m.Set(val, struct{}{})
	return !replaced
}

func (s *Set[K, H]) Contains(val K) bool {
	return s.m.Has(val)
}

// Remove deletes val and reports whether it was present.
func (s *Set[K, H]) Remove(val K) bool {
	_, ok := s.m.Delete(val)
	return ok
}

func (s *Set[K, H]) Len() int {
	return s.m.Len()
}

func (s *Set[K, H]) Clear() {
	s.m.Clear()
}

func (s *Set[K, H]) Scan(iter func(val K) bool) {
	s.m.Scan(func(key K, _ struct{}) bool {
		return iter(key)
	})
}

func (s *Set[K, H]) All() iter.Seq[K] {
	return s.Scan
}

func (s *Set[K, H]) Values() []K {
	return s.m.Keys()
}
