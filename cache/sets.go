package cache

import (
	"slices"
	"time"

	"gonohash/nohash"
)

// SAdd adds members to the set stored at key and returns how many were new.
func (db *Cache[K, V]) SAdd(key K, members ...K) (int, error) {
	return db.shard(key).sAdd(key, members, time.Now())
}

// SRem removes members from the set stored at key and returns how many
// were present. The set is dropped once empty.
func (db *Cache[K, V]) SRem(key K, members ...K) (int, error) {
	return db.shard(key).sRem(key, members, time.Now())
}

func (db *Cache[K, V]) SIsMember(key, member K) (bool, error) {
	var ok bool
	err := db.shard(key).viewSet(key, time.Now(), func(s *nohash.Set[K]) {
		ok = s.Contains(member)
	})
	return ok, err
}

func (db *Cache[K, V]) SCard(key K) (int, error) {
	var n int
	err := db.shard(key).viewSet(key, time.Now(), func(s *nohash.Set[K]) {
		n = s.Len()
	})
	return n, err
}

// SMembers returns the members of the set at key in ascending order.
func (db *Cache[K, V]) SMembers(key K) ([]K, error) {
	var members []K
	err := db.shard(key).viewSet(key, time.Now(), func(s *nohash.Set[K]) {
		members = s.Values()
	})
	slices.Sort(members)
	return members, err
}

// setLocked returns the set at key, nil if key is free, or ErrWrongType if
// key holds something else.
func (b *bucket[K, V]) setLocked(key K, now time.Time) (*nohash.Set[K], error) {
	if s, ok := b.sets[key]; ok {
		return s, nil
	}

	if _, ok := b.zsets[key]; ok || b.hasValueLocked(key, now) {
		return nil, ErrWrongType
	}

	return nil, nil
}

func (b *bucket[K, V]) sAdd(key K, members []K, now time.Time) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.setLocked(key, now)

	if err != nil {
		return 0, err
	}

	if s == nil {
		if len(members) == 0 {
			return 0, nil
		}

		// drop an expired value still waiting for eviction
		b.deleteLocked(key)
		s = nohash.NewSet[K](len(members))
		b.sets[key] = s
	}

	for _, m := range members {
		if s.Insert(m) {
			n++
		}
	}

	return n, nil
}

func (b *bucket[K, V]) sRem(key K, members []K, now time.Time) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.setLocked(key, now)

	if s == nil || err != nil {
		return 0, err
	}

	for _, m := range members {
		if s.Remove(m) {
			n++
		}
	}

	if s.Len() == 0 {
		delete(b.sets, key)
	}

	return n, nil
}

// viewSet calls fn with the set at key under the read lock. A missing key
// reads as an empty set.
func (b *bucket[K, V]) viewSet(key K, now time.Time, fn func(s *nohash.Set[K])) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, err := b.setLocked(key, now)

	if err != nil {
		return err
	}

	if s == nil {
		s = &nohash.Set[K]{}
	}

	fn(s)
	return nil
}
