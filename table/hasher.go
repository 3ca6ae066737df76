package table

// Hasher hashes keys and compares them for equality. Tables call Hash
// at most once per lookup, insertion and removal.
type Hasher[K comparable] interface {
	Hash(key K) uint64
	Equal(a, b K) bool
}
