package evaluator

import "github.com/Skizdukion/my-open-spiel/internal/config"

// Package defaults, applied when the corresponding Config field is unset.
const (
	defaultCacheShards = 1
)

// Config holds the tunables spec.md §6 enumerates. Zero values for
// InferenceThreads/CacheCapacity/CacheShards are meaningful (see New) rather
// than "unset" placeholders, except CacheShards which floors to 1.
type Config struct {
	// BatchSize is the target batch size. A value <= 1 selects inline
	// mode: no runner goroutines exist and every call executes inline,
	// bypassing the queue entirely.
	BatchSize int
	// InferenceThreads is the runner-goroutine count. Forced to 0 when
	// BatchSize <= 1, regardless of the configured value.
	InferenceThreads int
	// CacheCapacity is the total LRU capacity across all shards. 0
	// disables the cache: every call goes to the model.
	CacheCapacity int
	// CacheShards is the shard count, clamped to a minimum of 1.
	CacheShards int
}

// ConfigFromFile converts a loaded config.File into a Config field by field.
// Zeros are kept as zeros; New's normalization then raises a zero BatchSize
// or CacheShards to 1, and a zero InferenceThreads or CacheCapacity keeps its
// meaning (inline mode, no cache).
func ConfigFromFile(f config.File) Config {
	return Config{
		BatchSize:        f.InferenceBatchSize,
		InferenceThreads: f.InferenceThreads,
		CacheCapacity:    f.InferenceCache,
		CacheShards:      f.CacheShards,
	}
}

// DefaultShardCount implements the heuristic from spec.md §9: a typical
// shard count is ceil((actors+evaluators)/16), clamped to at least 1.
func DefaultShardCount(actors, evaluators int) int {
	n := actors + evaluators
	if n <= 0 {
		return 1
	}
	shards := (n + 15) / 16
	if shards < 1 {
		shards = 1
	}
	return shards
}

// normalized returns a copy of cfg with spec.md §4.4's inline-mode coercion
// and the cache-shard floor applied.
func (cfg Config) normalized() Config {
	out := cfg
	if out.BatchSize <= 1 {
		out.BatchSize = 1
		out.InferenceThreads = 0
	}
	if out.CacheShards < defaultCacheShards {
		out.CacheShards = defaultCacheShards
	}
	return out
}

// queueCapacity is the bounded queue's capacity: batch_size * runner_threads
// * 4, per spec.md §5.
func (cfg Config) queueCapacity() int {
	cap := cfg.BatchSize * cfg.InferenceThreads * 4
	if cap < 1 {
		cap = 1
	}
	return cap
}
