package db

import (
	"context"
	"time"
)

// Store is the Redis facade combining the sub-interfaces used by analytics and the embedding cache.
type Store interface {
	Pinger
	KVStore
	SortedSetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([]int64, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// ScoredMember is one entry of a sorted set.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedSetStore provides the sorted-set operations behind the top-queries ranking.
type SortedSetStore interface {
	ZIncrBy(ctx context.Context, key, member string, incr float64) error
	ZRevRangeWithScores(ctx context.Context, key string, limit int) ([]ScoredMember, error)
}
