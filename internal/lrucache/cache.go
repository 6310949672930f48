// Package lrucache implements a fingerprint-keyed, sharded, in-memory LRU
// cache. Each shard owns an independent mutex and recency list so that
// concurrent callers touching different shards never contend, trading a
// single global lock for load spread across ShardCount independent ones.
//
// The cache never fails: a Get miss is a normal outcome, not an error, and
// Set always succeeds (evicting the shard's least-recently-used entry when
// at capacity). Callers own collision handling — see Info for hit/miss/
// eviction counters, and evaluator.InferenceInputs.Fingerprint for why a
// 64-bit fingerprint hash is treated as collision-free in practice.
package lrucache

// Info is an aggregate snapshot across all shards of a Cache.
type Info struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a sharded LRU keyed by a pre-computed 64-bit fingerprint.
type Cache[V any] struct {
	shards     []*shard[V]
	shardCount int
	capacity   int
}

// New creates a Cache with the given total capacity spread evenly across
// shardCount shards (each shard gets at least capacity 1). shardCount is
// clamped to a minimum of 1. A capacity of 0 still produces a usable cache
// that holds one entry per shard (per-shard capacity floors to 1) — callers
// for whom capacity 0 means "disabled" should check that themselves and
// skip the cache entirely, as the dispatcher does.
func New[V any](capacity, shardCount int) *Cache[V] {
	if shardCount < 1 {
		shardCount = 1
	}
	perShard := capacity / shardCount
	if perShard < 1 {
		perShard = 1
	}
	shards := make([]*shard[V], shardCount)
	for i := range shards {
		shards[i] = newShard[V](perShard)
	}
	return &Cache[V]{shards: shards, shardCount: shardCount, capacity: perShard * shardCount}
}

// shardFor selects the shard owning a fingerprint.
func (c *Cache[V]) shardFor(key uint64) *shard[V] {
	return c.shards[key%uint64(c.shardCount)]
}

// Get returns the cached value for key and whether it was present. A hit
// refreshes the entry's recency within its shard.
func (c *Cache[V]) Get(key uint64) (V, bool) {
	return c.shardFor(key).get(key)
}

// Set inserts or updates the value for key, evicting the shard's
// least-recently-used entry if the shard is at capacity.
func (c *Cache[V]) Set(key uint64, value V) {
	c.shardFor(key).set(key, value)
}

// Clear empties every shard, discarding all entries. Hit/miss/eviction
// counters are left untouched — Clear is a content reset, not a stats
// reset.
func (c *Cache[V]) Clear() {
	for _, s := range c.shards {
		s.clear()
	}
}

// Info aggregates size and counters across all shards.
func (c *Cache[V]) Info() Info {
	info := Info{Capacity: c.capacity}
	for _, s := range c.shards {
		size, hits, misses, evictions := s.snapshot()
		info.Size += size
		info.Hits += hits
		info.Misses += misses
		info.Evictions += evictions
	}
	return info
}

// ShardCount reports the number of shards the cache was constructed with.
func (c *Cache[V]) ShardCount() int { return c.shardCount }
