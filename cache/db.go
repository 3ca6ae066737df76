package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/tidwall/assert"
	"github.com/tidwall/btree"

	"gonohash/nohash"
	"gonohash/table"
)

// Cache is a sharded in-memory store of integer keys. A key's shard is its
// identity hash modulo the shard count, so consecutive ids are spread
// round-robin over the shards.
type Cache[K nohash.Key, V any] struct {
	shardN  uint64
	buckets []*bucket[K, V]
	hasher  table.Hasher[K]
}

type bucket[K nohash.Key, V any] struct {
	mu      sync.RWMutex
	timerMu sync.Mutex
	keys    *btree.BTreeG[dbItem[K, V]]
	exps    *btree.BTreeG[dbItem[K, V]]
	timer   *time.Timer
	sets    map[K]*nohash.Set[K]
	zsets   map[K]*zSetTable[K]
	closed  bool
}

type dbItemOpts struct {
	expires bool
	exat    time.Time
}

type SetOptions struct {
	Expires bool
	TTL     time.Duration
}

type dbItem[K nohash.Key, V any] struct {
	key  K
	val  V
	opts *dbItemOpts
}

func (item dbItem[K, V]) expires() bool {
	return item.opts != nil && item.opts.expires
}

func (item dbItem[K, V]) expiredAt(now time.Time) bool {
	return item.expires() && !now.Before(item.opts.exat)
}

func lessFunc[K nohash.Key, V any](a, b dbItem[K, V]) bool {
	return a.key < b.key
}

func lessTimeFunc[K nohash.Key, V any](a, b dbItem[K, V]) bool {
	assert.Assert(a.expires() && b.expires())

	if !a.opts.exat.Equal(b.opts.exat) {
		return a.opts.exat.Before(b.opts.exat)
	}

	return a.key < b.key
}

func NewCache[K nohash.Key, V any](shardBits int) (*Cache[K, V], error) {
	if shardBits < 0 || shardBits > 8 {
		return nil, ErrShardBits
	}

	shardNum := 1 << shardBits
	db := &Cache[K, V]{
		buckets: make([]*bucket[K, V], shardNum),
		hasher:  nohash.BuildHasher[K]{},
		shardN:  uint64(shardNum),
	}

	for i := 0; i < shardNum; i++ {
		db.buckets[i] = &bucket[K, V]{
			keys:  btree.NewBTreeG(lessFunc[K, V]),
			exps:  btree.NewBTreeG(lessTimeFunc[K, V]),
			sets:  make(map[K]*nohash.Set[K]),
			zsets: make(map[K]*zSetTable[K]),
		}
	}

	return db, nil
}

func (db *Cache[K, V]) shard(key K) *bucket[K, V] {
	return db.buckets[db.hasher.Hash(key)%db.shardN]
}

func (db *Cache[K, V]) Shards() int {
	return len(db.buckets)
}

// Set stores val under key, replacing whatever key held before.
func (db *Cache[K, V]) Set(key K, val V, opts *SetOptions) error {
	item := dbItem[K, V]{key: key, val: val}

	if opts != nil && opts.Expires {
		item.opts = &dbItemOpts{expires: true, exat: time.Now().Add(opts.TTL)}
	}

	db.shard(key).set(item)
	return nil
}

func (db *Cache[K, V]) Get(key K) (val V, err error) {
	item, ok := db.shard(key).get(key, time.Now())

	if !ok {
		return val, ErrNotFound
	}

	return item.val, nil
}

// Delete removes key whatever it holds and reports whether it existed.
func (db *Cache[K, V]) Delete(key K) bool {
	return db.shard(key).delete(key, time.Now())
}

func (db *Cache[K, V]) Exists(key K) bool {
	return db.shard(key).exists(key, time.Now())
}

// TTL returns the remaining time to live of key, or -1 if it never expires.
func (db *Cache[K, V]) TTL(key K) (time.Duration, error) {
	return db.shard(key).ttl(key, time.Now())
}

// Len counts live keys of every kind.
func (db *Cache[K, V]) Len() (n int) {
	now := time.Now()

	for _, b := range db.buckets {
		n += b.count(now)
	}

	return
}

// Keys returns all live keys in ascending order.
func (db *Cache[K, V]) Keys() []K {
	now := time.Now()
	var keys []K

	for _, b := range db.buckets {
		keys = b.appendKeys(keys, now)
	}

	slices.Sort(keys)
	return keys
}

func (db *Cache[K, V]) Close() error {
	for _, b := range db.buckets {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		b.stopTimer()
	}

	return nil
}

func (b *bucket[K, V]) set(item dbItem[K, V]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.sets, item.key)
	delete(b.zsets, item.key)
	prev, replaced := b.keys.Set(item)

	if replaced && prev.expires() {
		b.exps.Delete(prev)
	}

	if item.expires() {
		b.exps.Set(item)
		b.scheduleTimerLocked()
	}
}

func (b *bucket[K, V]) get(key K, now time.Time) (dbItem[K, V], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	item, ok := b.keys.Get(dbItem[K, V]{key: key})

	if !ok || item.expiredAt(now) {
		return dbItem[K, V]{}, false
	}

	return item, true
}

func (b *bucket[K, V]) delete(key K, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.sets[key]; ok {
		delete(b.sets, key)
		return true
	}

	if _, ok := b.zsets[key]; ok {
		delete(b.zsets, key)
		return true
	}

	item, ok := b.deleteLocked(key)
	return ok && !item.expiredAt(now)
}

func (b *bucket[K, V]) deleteLocked(key K) (dbItem[K, V], bool) {
	item, ok := b.keys.Delete(dbItem[K, V]{key: key})

	if ok && item.expires() {
		b.exps.Delete(item)
	}

	return item, ok
}

func (b *bucket[K, V]) exists(key K, now time.Time) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.hasCollectionLocked(key) || b.hasValueLocked(key, now)
}

// hasValueLocked reports whether key holds an unexpired value.
func (b *bucket[K, V]) hasValueLocked(key K, now time.Time) bool {
	item, ok := b.keys.Get(dbItem[K, V]{key: key})
	return ok && !item.expiredAt(now)
}

// hasCollectionLocked reports whether key holds a set or a sorted set.
// Neither ever expires.
func (b *bucket[K, V]) hasCollectionLocked(key K) bool {
	_, isSet := b.sets[key]
	_, isZSet := b.zsets[key]
	return isSet || isZSet
}

func (b *bucket[K, V]) ttl(key K, now time.Time) (time.Duration, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.hasCollectionLocked(key) {
		return -1, nil
	}

	item, ok := b.keys.Get(dbItem[K, V]{key: key})

	if !ok || item.expiredAt(now) {
		return 0, ErrNotFound
	}

	if !item.expires() {
		return -1, nil
	}

	return item.opts.exat.Sub(now), nil
}

func (b *bucket[K, V]) count(now time.Time) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := b.keys.Len() + len(b.sets) + len(b.zsets)

	b.exps.Scan(func(item dbItem[K, V]) bool {
		if !item.expiredAt(now) {
			return false
		}
		n--
		return true
	})

	return n
}

func (b *bucket[K, V]) appendKeys(keys []K, now time.Time) []K {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.keys.Scan(func(item dbItem[K, V]) bool {
		if !item.expiredAt(now) {
			keys = append(keys, item.key)
		}
		return true
	})

	for key := range b.sets {
		keys = append(keys, key)
	}

	for key := range b.zsets {
		keys = append(keys, key)
	}

	return keys
}

func (b *bucket[K, V]) scheduleTimerLocked() {
	minItem, ok := b.exps.Min()

	if !ok || b.closed {
		b.stopTimer()
		return
	}

	next := time.Until(minItem.opts.exat)

	if next < 0 {
		next = 0
	}

	b.resetTimer(next)
}

func (b *bucket[K, V]) resetTimer(d time.Duration) {
	b.timerMu.Lock()
	defer b.timerMu.Unlock()

	if b.timer != nil {
		b.timer.Reset(d)
	} else {
		b.timer = time.AfterFunc(d, b.evictExpired)
	}
}

func (b *bucket[K, V]) stopTimer() {
	b.timerMu.Lock()
	defer b.timerMu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *bucket[K, V]) evictExpired() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	for {
		minItem, ok := b.exps.Min()

		if !ok || !minItem.expiredAt(now) {
			break
		}

		b.deleteLocked(minItem.key)
	}

	b.scheduleTimerLocked()
}
