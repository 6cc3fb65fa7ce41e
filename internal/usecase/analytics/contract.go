package analytics

import (
	"context"
	"time"

	"github.com/kailas-cloud/govdocs/internal/db"
)

// Store persists per-day search counters and query frequencies.
type Store interface {
	IncrTier(ctx context.Context, day time.Time, tier string) error
	IncrQuery(ctx context.Context, day time.Time, query string) error
	TierCounts(ctx context.Context, day time.Time, tiers []string) (map[string]int64, error)
	TopQueries(ctx context.Context, day time.Time, n int) ([]db.ScoredMember, error)
}
