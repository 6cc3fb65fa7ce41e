package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/govdocs/internal/db"
)

const keyPrefix = "govdocs:analytics:"

// store is the consumer interface for analytics operations (ISP).
type store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	MGet(ctx context.Context, keys []string) ([]int64, error)
	ZIncrBy(ctx context.Context, key, member string, incr float64) error
	ZRevRangeWithScores(ctx context.Context, key string, limit int) ([]db.ScoredMember, error)
}

// Store keeps per-day search counters (INCRBY + EXPIRE NX) and a per-day
// sorted set of queries.
type Store struct {
	store     store
	retention time.Duration
}

// New creates an analytics store. Keys expire retention after their first write.
func New(s store, retention time.Duration) *Store {
	return &Store{store: s, retention: retention}
}

// IncrTier counts one search answered by tier on day.
func (s *Store) IncrTier(ctx context.Context, day time.Time, tier string) error {
	key := tierKey(day, tier)
	if err := s.store.IncrBy(ctx, key, 1); err != nil {
		return fmt.Errorf("analytics INCRBY %s: %w", key, err)
	}
	// Set TTL only if the key has no expiry yet (NX: not reset on repeat).
	if err := s.store.Expire(ctx, key, s.retention, true); err != nil {
		return fmt.Errorf("analytics EXPIRE %s: %w", key, err)
	}
	return nil
}

// IncrQuery bumps the score of a normalized query on day.
func (s *Store) IncrQuery(ctx context.Context, day time.Time, query string) error {
	key := queriesKey(day)
	if err := s.store.ZIncrBy(ctx, key, query, 1); err != nil {
		return fmt.Errorf("analytics ZINCRBY %s: %w", key, err)
	}
	if err := s.store.Expire(ctx, key, s.retention, true); err != nil {
		return fmt.Errorf("analytics EXPIRE %s: %w", key, err)
	}
	return nil
}

// TierCounts returns the counters for tiers on day. Missing counters are 0.
func (s *Store) TierCounts(ctx context.Context, day time.Time, tiers []string) (map[string]int64, error) {
	keys := make([]string, len(tiers))
	for i, t := range tiers {
		keys[i] = tierKey(day, t)
	}
	vals, err := s.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("analytics MGET: %w", err)
	}
	out := make(map[string]int64, len(tiers))
	for i, t := range tiers {
		if i < len(vals) {
			out[t] = vals[i]
		} else {
			out[t] = 0
		}
	}
	return out, nil
}

// TopQueries returns up to n queries of day, most frequent first.
func (s *Store) TopQueries(ctx context.Context, day time.Time, n int) ([]db.ScoredMember, error) {
	key := queriesKey(day)
	top, err := s.store.ZRevRangeWithScores(ctx, key, n)
	if err != nil {
		return nil, fmt.Errorf("analytics ZREVRANGE %s: %w", key, err)
	}
	return top, nil
}

func dayStamp(t time.Time) string {
	return t.UTC().Format("20060102")
}

func tierKey(day time.Time, tier string) string {
	return keyPrefix + "searches:" + dayStamp(day) + ":" + tier
}

func queriesKey(day time.Time) string {
	return keyPrefix + "queries:" + dayStamp(day)
}
