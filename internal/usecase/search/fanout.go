package search

import (
	"context"
	"sync"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/logger"
	"github.com/kailas-cloud/govdocs/internal/metrics"
)

type collectionOutcome struct {
	collection domdoc.Collection
	docs       []domdoc.Document
	err        error
}

// fanOut queries every collection concurrently. Outcomes keep the order of colls.
func fanOut(
	ctx context.Context, colls []domdoc.Collection,
	fn func(ctx context.Context, c domdoc.Collection) ([]domdoc.Document, error),
) []collectionOutcome {
	out := make([]collectionOutcome, len(colls))
	var wg sync.WaitGroup
	for i, c := range colls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			docs, err := fn(ctx, c)
			out[i] = collectionOutcome{collection: c, docs: docs, err: err}
		}()
	}
	wg.Wait()
	return out
}

// merge concatenates successful outcomes and logs the failed ones.
// It returns how many collections failed.
func merge(ctx context.Context, tier string, outcomes []collectionOutcome) ([]domdoc.Document, int) {
	var docs []domdoc.Document
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			metrics.CollectionErrorsTotal.WithLabelValues(tier, o.collection.String()).Inc()
			logger.FromContext(ctx).Warn("Collection query failed",
				zap.String("tier", tier),
				zap.String("collection", o.collection.String()),
				zap.Error(o.err),
			)
			continue
		}
		docs = append(docs, o.docs...)
	}
	return docs, failed
}
