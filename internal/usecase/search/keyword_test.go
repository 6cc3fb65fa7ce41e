package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
)

func TestKeywordMatcher_TitleIgnoresCase(t *testing.T) {
	store := newFakeStore(domdoc.Document{
		ID: "1", Collection: domdoc.NotificationCircular, Title: "Revised Pension Rules 2024",
	})
	m := NewKeywordMatcher(store, 50)

	for _, q := range []string{"revised pension rules 2024", "REVISED PENSION", "Pension Rules"} {
		res, err := m.Match(context.Background(), q)
		require.NoError(t, err)
		require.Len(t, res, 1, "query %q", q)
		assert.Equal(t, result.Keyword, res[0].Source)
		assert.Equal(t, domdoc.NotificationCircular, res[0].Document.Collection)
	}
}

func TestKeywordMatcher_EscapesMetacharacters(t *testing.T) {
	store := newFakeStore(
		domdoc.Document{ID: "1", Collection: domdoc.Tender, Title: "Supply of C++ compilers (phase 2)"},
		domdoc.Document{ID: "2", Collection: domdoc.Tender, Title: "Supply of Cxx compilers phase 2"},
	)
	res, err := NewKeywordMatcher(store, 0).Match(context.Background(), "C++ compilers (phase")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "1", res[0].Document.ID)
}

func TestKeywordMatcher_MergesInCollectionOrder(t *testing.T) {
	store := newFakeStore(
		domdoc.Document{ID: "t", Collection: domdoc.Tender, Keywords: []string{"road"}},
		domdoc.Document{ID: "e", Collection: domdoc.EmploymentNotice, Title: "Road inspector"},
		domdoc.Document{ID: "n", Collection: domdoc.NotificationCircular, Department: "Road Transport"},
	)
	res, err := NewKeywordMatcher(store, 0).Match(context.Background(), "road")
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []string{"e", "n", "t"}, []string{res[0].Document.ID, res[1].Document.ID, res[2].Document.ID})
}

func TestKeywordMatcher_PartialFailureIsSwallowed(t *testing.T) {
	store := newFakeStore(domdoc.Document{ID: "1", Collection: domdoc.Tender, Title: "bridge repair"})
	store.keywordErr[domdoc.EmploymentNotice] = errors.New("connection reset")

	res, err := NewKeywordMatcher(store, 0).Match(context.Background(), "bridge")
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestKeywordMatcher_AllCollectionsFail(t *testing.T) {
	store := newFakeStore()
	for _, c := range domdoc.All() {
		store.keywordErr[c] = errors.New("server selection timeout")
	}

	_, err := NewKeywordMatcher(store, 0).Match(context.Background(), "bridge")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestKeywordMatcher_LimitPerCollection(t *testing.T) {
	var docs []domdoc.Document
	for _, id := range []string{"a", "b", "c", "d"} {
		docs = append(docs, domdoc.Document{ID: id, Collection: domdoc.Tender, Title: "canal works"})
	}
	res, err := NewKeywordMatcher(newFakeStore(docs...), 2).Match(context.Background(), "canal")
	require.NoError(t, err)
	assert.Len(t, res, 2)
}
