package table

import (
	"iter"
	"math/bits"
)

const (
	minBuckets = 8
	// average chain length that triggers doubling
	maxLoad = 2
)

type entry[K comparable, V any] struct {
	hash uint64
	key  K
	val  V
}

// Map is a hash map whose bucket placement is driven entirely by H.
// The zero value is an empty map ready to use.
type Map[K comparable, V any, H Hasher[K]] struct {
	hasher  H
	buckets [][]entry[K, V]
	length  int
}

// NewMap returns a map using hasher. The optional capacity preallocates
// buckets for that many entries.
func NewMap[K comparable, V any, H Hasher[K]](hasher H, capacity ...int) *Map[K, V, H] {
	m := &Map[K, V, H]{hasher: hasher}

	if capacity != nil && capacity[0] > 0 {
		m.buckets = make([][]entry[K, V], bucketsFor(capacity[0]))
	}

	return m
}

func bucketsFor(capacity int) int {
	n := (capacity + maxLoad - 1) / maxLoad

	if n <= minBuckets {
		return minBuckets
	}

	return 1 << bits.Len(uint(n-1))
}

func (m *Map[K, V, H]) Len() int {
	return m.length
}

func (m *Map[K, V, H]) bucket(hash uint64) int {
	return int(hash & uint64(len(m.buckets)-1))
}

func (m *Map[K, V, H]) find(key K) (b, i int, hash uint64) {
	hash = m.hasher.Hash(key)

	if len(m.buckets) == 0 {
		return -1, -1, hash
	}

	b = m.bucket(hash)

	for i := range m.buckets[b] {
		e := &m.buckets[b][i]

		if e.hash == hash && m.hasher.Equal(e.key, key) {
			return b, i, hash
		}
	}

	return b, -1, hash
}

func (m *Map[K, V, H]) Get(key K) (val V, ok bool) {
	if m.length == 0 {
		return
	}

	b, i, _ := m.find(key)

	if i < 0 {
		return
	}

	return m.buckets[b][i].val, true
}

func (m *Map[K, V, H]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores val under key and returns the value it replaced, if any.
func (m *Map[K, V, H]) Set(key K, val V) (prev V, replaced bool) {
	b, i, hash := m.find(key)

	if i >= 0 {
		e := &m.buckets[b][i]
		prev, e.val = e.val, val
		return prev, true
	}

	if len(m.buckets) == 0 {
		m.buckets = make([][]entry[K, V], minBuckets)
	} else if m.length >= len(m.buckets)*maxLoad {
		m.grow()
	}

	b = m.bucket(hash)
	m.buckets[b] = append(m.buckets[b], entry[K, V]{hash: hash, key: key, val: val})
	m.length++

	return
}

// Delete removes key and returns the value it held.
func (m *Map[K, V, H]) Delete(key K) (prev V, ok bool) {
	if m.length == 0 {
		return
	}

	b, i, _ := m.find(key)

	if i < 0 {
		return
	}

	chain := m.buckets[b]
	last := len(chain) - 1
	prev = chain[i].val
	chain[i] = chain[last]
	chain[last] = entry[K, V]{}
	m.buckets[b] = chain[:last]
	m.length--

	return prev, true
}

func (m *Map[K, V, H]) grow() {
	old := m.buckets
	m.buckets = make([][]entry[K, V], len(old)*2)

	for _, chain := range old {
		for _, e := range chain {
			b := m.bucket(e.hash)
			m.buckets[b] = append(m.buckets[b], e)
		}
	}
}

// Clear removes all entries but keeps the allocated buckets.
func (m *Map[K, V, H]) Clear() {
	clear(m.buckets)
	m.length = 0
}

// Scan calls iter for every entry until it returns false.
// The map must not be modified during the scan.
func (m *Map[K, V, H]) Scan(iter func(key K, val V) bool) {
	for _, chain := range m.buckets {
		for _, e := range chain {
			if !iter(e.key, e.val) {
				return
			}
		}
	}
}

func (m *Map[K, V, H]) All() iter.Seq2[K, V] {
	return m.Scan
}

func (m *Map[K, V, H]) Keys() []K {
	keys := make([]K, 0, m.length)

	m.Scan(func(key K, _ V) bool {
		keys = append(keys, key)
		return true
	})

	return keys
}
