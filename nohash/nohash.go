// Package nohash hashes integer keys by returning them unchanged.
//
// Map and Set are hash containers wired to BuildHasher. Only key types
// that implement IsEnabled are accepted, which makes the choice of identity
// hashing explicit at every key type's declaration.
package nohash

import "gonohash/table"

type (
	Map[K Key, V any] = table.Map[K, V, BuildHasher[K]]
	Set[K Key]        = table.Set[K, BuildHasher[K]]
)

// NewMap returns an empty map sized for the optional capacity.
func NewMap[K Key, V any](capacity ...int) *Map[K, V] {
	return table.NewMap[K, V](BuildHasher[K]{}, capacity...)
}

// NewSet returns an empty set sized for the optional capacity.
func NewSet[K Key](capacity ...int) *Set[K] {
	return table.NewSet[K](BuildHasher[K]{}, capacity...)
}
