package cache

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/btree"

	"gonohash/nohash"
)

// ZItem is a sorted set member and its score.
type ZItem[K nohash.Key] struct {
	Member K
	Score  float64
}

type zSetItem[K nohash.Key] struct {
	score  float64
	member K
}

func zSetLess[K nohash.Key](a, b zSetItem[K]) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

// zSetTable keeps members ordered by (score, member) in idx and looks up a
// member's current score through dict.
type zSetTable[K nohash.Key] struct {
	idx  *btree.BTreeG[zSetItem[K]]
	dict *nohash.Map[K, *zSetItem[K]]
}

func newZSetTable[K nohash.Key](capacity int) *zSetTable[K] {
	return &zSetTable[K]{
		idx:  btree.NewBTreeG(zSetLess[K]),
		dict: nohash.NewMap[K, *zSetItem[K]](capacity),
	}
}

// add sets the score of member and reports whether it was new.
func (zt *zSetTable[K]) add(score float64, member K) bool {
	if it, ok := zt.dict.Get(member); ok {
		if it.score != score {
			zt.idx.Delete(*it)
			it.score = score
			zt.idx.Set(*it)
		}
		return false
	}

	it := &zSetItem[K]{score: score, member: member}
	zt.dict.Set(member, it)
	zt.idx.Set(*it)
	return true
}

func (zt *zSetTable[K]) remove(member K) bool {
	it, ok := zt.dict.Delete(member)

	if !ok {
		return false
	}

	zt.idx.Delete(*it)
	return true
}

func (zt *zSetTable[K]) len() int {
	if zt == nil {
		return 0
	}
	return zt.dict.Len()
}

func (zt *zSetTable[K]) score(member K) (float64, bool) {
	if zt == nil {
		return 0, false
	}

	it, ok := zt.dict.Get(member)

	if !ok {
		return 0, false
	}

	return it.score, true
}

// rangeByRank returns the members ranked start through stop, inclusive.
// Negative ranks count back from the highest ranked member.
func (zt *zSetTable[K]) rangeByRank(start, stop int, reverse bool) []ZItem[K] {
	n := zt.len()

	if start < 0 {
		start = max(start+n, 0)
	}

	if stop < 0 {
		stop += n
	}

	stop = min(stop, n-1)

	if n == 0 || start > stop {
		return nil
	}

	out := make([]ZItem[K], 0, stop-start+1)
	i := 0
	iter := zt.idx.Scan

	if reverse {
		iter = zt.idx.Reverse
	}

	iter(func(it zSetItem[K]) bool {
		if i >= start {
			out = append(out, ZItem[K]{Member: it.member, Score: it.score})
		}
		i++
		return i <= stop
	})

	return out
}

func (zt *zSetTable[K]) rangeByScore(opts ZRangeByScoreOpts) []ZItem[K] {
	if zt.len() == 0 || opts.Offset < 0 || opts.Count == 0 {
		return nil
	}

	var out []ZItem[K]
	skip := opts.Offset
	iter := zt.idx.Scan

	if opts.Reverse {
		iter = zt.idx.Reverse
	}

	iter(func(it zSetItem[K]) bool {
		// items before the range are skipped, the first one past it ends the scan
		before, past := !opts.overMin(it.score), !opts.underMax(it.score)

		if opts.Reverse {
			before, past = past, before
		}

		if before {
			return true
		}

		if past {
			return false
		}

		if skip > 0 {
			skip--
			return true
		}

		out = append(out, ZItem[K]{Member: it.member, Score: it.score})
		return opts.Count < 0 || len(out) < opts.Count
	})

	return out
}

// ZRangeByScoreOpts selects sorted set members by score. A negative Count
// means no limit.
type ZRangeByScoreOpts struct {
	Min, Max     float64
	MinEx, MaxEx bool
	WithScores   bool
	Offset       int
	Count        int
	Reverse      bool
}

func (opts ZRangeByScoreOpts) overMin(score float64) bool {
	if opts.MinEx {
		return score > opts.Min
	}
	return score >= opts.Min
}

func (opts ZRangeByScoreOpts) underMax(score float64) bool {
	if opts.MaxEx {
		return score < opts.Max
	}
	return score <= opts.Max
}

// ParseZRangeByScoreArgs parses "min max [WITHSCORES] [LIMIT offset count]".
// In reverse the bounds come highest first, as ZREVRANGEBYSCORE takes them.
// A bound prefixed with "(" is exclusive; -inf and +inf are accepted.
func ParseZRangeByScoreArgs(args []string, reverse bool) (ZRangeByScoreOpts, error) {
	opts := ZRangeByScoreOpts{Count: -1, Reverse: reverse}

	if len(args) < 2 {
		return opts, ErrSyntax
	}

	lo, hi := args[0], args[1]

	if reverse {
		lo, hi = hi, lo
	}

	var err error

	if opts.Min, opts.MinEx, err = parseScore(lo); err != nil {
		return opts, err
	}

	if opts.Max, opts.MaxEx, err = parseScore(hi); err != nil {
		return opts, err
	}

	for i := 2; i < len(args); {
		switch strings.ToUpper(args[i]) {
		case "WITHSCORES":
			opts.WithScores = true
			i++
		case "LIMIT":
			if i+2 >= len(args) {
				return opts, ErrSyntax
			}

			offset, err1 := strconv.Atoi(args[i+1])
			count, err2 := strconv.Atoi(args[i+2])

			if err1 != nil || err2 != nil {
				return opts, ErrNotInteger
			}

			opts.Offset, opts.Count = offset, count
			i += 3
		default:
			return opts, ErrSyntax
		}
	}

	return opts, nil
}

func parseScore(s string) (v float64, exclusive bool, err error) {
	if strings.HasPrefix(s, "(") {
		exclusive = true
		s = s[1:]
	}

	v, err = strconv.ParseFloat(s, 64)

	if err != nil || math.IsNaN(v) {
		return 0, false, ErrScoreRange
	}

	return v, exclusive, nil
}

// ZAdd sets the scores of members in the sorted set at key and returns how
// many members were new.
func (db *Cache[K, V]) ZAdd(key K, items ...ZItem[K]) (int, error) {
	for _, it := range items {
		if math.IsNaN(it.Score) {
			return 0, ErrNotFloat
		}
	}

	return db.shard(key).zAdd(key, items, time.Now())
}

// ZRem removes members from the sorted set at key and returns how many were
// present. The sorted set is dropped once empty.
func (db *Cache[K, V]) ZRem(key K, members ...K) (int, error) {
	return db.shard(key).zRem(key, members, time.Now())
}

func (db *Cache[K, V]) ZScore(key K, member K) (score float64, ok bool, err error) {
	err = db.shard(key).viewZSet(key, time.Now(), func(zt *zSetTable[K]) {
		score, ok = zt.score(member)
	})
	return
}

func (db *Cache[K, V]) ZCard(key K) (n int, err error) {
	err = db.shard(key).viewZSet(key, time.Now(), func(zt *zSetTable[K]) {
		n = zt.len()
	})
	return
}

// ZRange returns the members ranked start through stop from the lowest
// score up.
func (db *Cache[K, V]) ZRange(key K, start, stop int) ([]ZItem[K], error) {
	return db.zRange(key, start, stop, false)
}

// ZRevRange returns the members ranked start through stop from the highest
// score down.
func (db *Cache[K, V]) ZRevRange(key K, start, stop int) ([]ZItem[K], error) {
	return db.zRange(key, start, stop, true)
}

func (db *Cache[K, V]) zRange(key K, start, stop int, reverse bool) (out []ZItem[K], err error) {
	err = db.shard(key).viewZSet(key, time.Now(), func(zt *zSetTable[K]) {
		out = zt.rangeByRank(start, stop, reverse)
	})
	return
}

func (db *Cache[K, V]) ZRangeByScore(key K, opts ZRangeByScoreOpts) (out []ZItem[K], err error) {
	err = db.shard(key).viewZSet(key, time.Now(), func(zt *zSetTable[K]) {
		out = zt.rangeByScore(opts)
	})
	return
}

// zsetLocked returns the sorted set at key, nil if key is free, or
// ErrWrongType if key holds something else.
func (b *bucket[K, V]) zsetLocked(key K, now time.Time) (*zSetTable[K], error) {
	if zt, ok := b.zsets[key]; ok {
		return zt, nil
	}

	if _, ok := b.sets[key]; ok || b.hasValueLocked(key, now) {
		return nil, ErrWrongType
	}

	return nil, nil
}

func (b *bucket[K, V]) zAdd(key K, items []ZItem[K], now time.Time) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	zt, err := b.zsetLocked(key, now)

	if err != nil {
		return 0, err
	}

	if zt == nil {
		if len(items) == 0 {
			return 0, nil
		}

		// drop an expired value still waiting for eviction
		b.deleteLocked(key)
		zt = newZSetTable[K](len(items))
		b.zsets[key] = zt
	}

	for _, it := range items {
		if zt.add(it.Score, it.Member) {
			n++
		}
	}

	return n, nil
}

func (b *bucket[K, V]) zRem(key K, members []K, now time.Time) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	zt, err := b.zsetLocked(key, now)

	if zt == nil || err != nil {
		return 0, err
	}

	for _, m := range members {
		if zt.remove(m) {
			n++
		}
	}

	if zt.len() == 0 {
		delete(b.zsets, key)
	}

	return n, nil
}

// viewZSet calls fn with the sorted set at key under the read lock. A
// missing key is passed as nil and reads as an empty sorted set.
func (b *bucket[K, V]) viewZSet(key K, now time.Time, fn func(zt *zSetTable[K])) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	zt, err := b.zsetLocked(key, now)

	if err != nil {
		return err
	}

	fn(zt)
	return nil
}
