package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/db"
)

// --- Mock ---

type mockStore struct {
	tierIncrs  []string
	queryIncrs []string
	days       []time.Time
	counts     map[string]int64
	top        []db.ScoredMember
	incrErr    error
	countsErr  error
	gotTopN    int
}

func (m *mockStore) IncrTier(_ context.Context, day time.Time, tier string) error {
	m.days = append(m.days, day)
	m.tierIncrs = append(m.tierIncrs, tier)
	return m.incrErr
}

func (m *mockStore) IncrQuery(_ context.Context, _ time.Time, query string) error {
	m.queryIncrs = append(m.queryIncrs, query)
	return m.incrErr
}

func (m *mockStore) TierCounts(_ context.Context, _ time.Time, tiers []string) (map[string]int64, error) {
	if m.countsErr != nil {
		return nil, m.countsErr
	}
	out := make(map[string]int64, len(tiers))
	for _, t := range tiers {
		out[t] = m.counts[t]
	}
	return out, nil
}

func (m *mockStore) TopQueries(_ context.Context, _ time.Time, n int) ([]db.ScoredMember, error) {
	m.gotTopN = n
	return m.top, nil
}

var tiers = []string{"keyword", "semantic", "refined", "not_found"}

func fixedClock(s *Service, t time.Time) {
	s.now = func() time.Time { return t }
}

// --- Tests ---

func TestRecord(t *testing.T) {
	store := &mockStore{}
	svc := New(store, tiers, 10, zap.NewNop())
	now := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	fixedClock(svc, now)

	svc.Record(context.Background(), "  Scholarship   FORM ", "keyword", 3)

	assert.Equal(t, []string{"keyword"}, store.tierIncrs)
	assert.Equal(t, []string{"scholarship form"}, store.queryIncrs)
	assert.Equal(t, now, store.days[0])
}

func TestRecord_StoreErrorsAreSwallowed(t *testing.T) {
	store := &mockStore{incrErr: errors.New("redis down")}
	svc := New(store, tiers, 10, zap.NewNop())

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), "q", "semantic", 0)
	})
	assert.Len(t, store.queryIncrs, 1, "query is still attempted after a failed tier write")
}

func TestSummary(t *testing.T) {
	store := &mockStore{
		counts: map[string]int64{"keyword": 7, "semantic": 2, "not_found": 1},
		top: []db.ScoredMember{
			{Member: "tender", Score: 5},
			{Member: "pension", Score: 2},
		},
	}
	svc := New(store, tiers, 5, zap.NewNop())
	fixedClock(svc, time.Date(2026, 3, 14, 15, 4, 5, 0, time.UTC))

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), s.Day)
	assert.Equal(t, int64(10), s.Total)
	assert.Equal(t, int64(0), s.Searches["refined"])
	assert.Len(t, s.Searches, 4)
	assert.Equal(t, []QueryCount{{"tender", 5}, {"pension", 2}}, s.TopQueries)
	assert.Equal(t, 5, store.gotTopN)
}

func TestSummary_StoreError(t *testing.T) {
	svc := New(&mockStore{countsErr: errors.New("timeout")}, tiers, 5, zap.NewNop())
	_, err := svc.Summary(context.Background())
	assert.Error(t, err)
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "road repair", NormalizeQuery("\tRoad \n REPAIR "))
	assert.Equal(t, "", NormalizeQuery("   "))
	long := NormalizeQuery(strings.Repeat("é", 300))
	assert.Equal(t, 200, len([]rune(long)))
}
