package backfill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
)

// DefaultWorkers is the embedding concurrency when Options.Workers is unset.
const DefaultWorkers = 4

// Store lists documents without a vector and writes vectors back.
type Store interface {
	MissingEmbeddings(ctx context.Context, c domdoc.Collection, limit int) ([]domdoc.Document, error)
	SetEmbedding(ctx context.Context, c domdoc.Collection, id string, vec []float32) error
}

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Options controls one backfill run.
type Options struct {
	Workers     int
	Limit       int // per collection, 0 = all
	DryRun      bool
	Collections []domdoc.Collection
}

// CollectionReport counts what happened in one collection.
type CollectionReport struct {
	Scanned  int
	Embedded int
	Skipped  int
	Failed   int
}

// Report is the outcome of a run, in collection order.
type Report struct {
	Collections []domdoc.Collection
	Counts      map[domdoc.Collection]CollectionReport
}

// Totals sums every collection.
func (r Report) Totals() CollectionReport {
	var t CollectionReport
	for _, c := range r.Counts {
		t.Scanned += c.Scanned
		t.Embedded += c.Embedded
		t.Skipped += c.Skipped
		t.Failed += c.Failed
	}
	return t
}

// Service computes embeddings for documents stored without one.
type Service struct {
	store  Store
	embed  Embedder
	logger *zap.Logger
}

// New creates a backfill service.
func New(store Store, embed Embedder, logger *zap.Logger) *Service {
	return &Service{store: store, embed: embed, logger: logger}
}

// Run backfills every requested collection. Per-document failures are
// counted; a missing API key or an unreadable collection stops the run.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	colls := opts.Collections
	if len(colls) == 0 {
		colls = domdoc.All()
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return Report{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	report := Report{Collections: colls, Counts: make(map[domdoc.Collection]CollectionReport, len(colls))}
	for _, c := range colls {
		cr, err := s.runCollection(ctx, cancel, pool, c, opts)
		report.Counts[c] = cr
		if err != nil {
			return report, err
		}
		if cause := context.Cause(ctx); cause != nil {
			return report, fmt.Errorf("backfill %s: %w", c, cause)
		}
	}
	return report, nil
}

func (s *Service) runCollection(
	ctx context.Context, abort context.CancelCauseFunc, pool *ants.Pool, c domdoc.Collection, opts Options,
) (CollectionReport, error) {
	docs, err := s.store.MissingEmbeddings(ctx, c, opts.Limit)
	if err != nil {
		return CollectionReport{}, fmt.Errorf("list %s without embeddings: %w", c, err)
	}

	var embedded, skipped, failed atomic.Int64
	var wg sync.WaitGroup
	for i := range docs {
		doc := docs[i]
		text := doc.EmbeddingText()
		if strings.TrimSpace(text) == "" {
			skipped.Add(1)
			continue
		}
		if opts.DryRun {
			continue
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := s.embedOne(ctx, c, doc.ID, text); err != nil {
				failed.Add(1)
				if errors.Is(err, domain.ErrMissingAPIKey) {
					abort(err)
				}
				return
			}
			embedded.Add(1)
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			s.logger.Error("Failed to submit backfill task", zap.String("collection", c.String()), zap.Error(err))
		}
	}
	wg.Wait()

	cr := CollectionReport{
		Scanned:  len(docs),
		Embedded: int(embedded.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
	}
	s.logger.Info("Backfill collection done",
		zap.String("collection", c.String()),
		zap.Int("scanned", cr.Scanned),
		zap.Int("embedded", cr.Embedded),
		zap.Int("skipped", cr.Skipped),
		zap.Int("failed", cr.Failed),
		zap.Bool("dry_run", opts.DryRun),
	)
	return cr, nil
}

func (s *Service) embedOne(ctx context.Context, c domdoc.Collection, id, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("Embedding failed",
			zap.String("collection", c.String()),
			zap.String("id", id),
			zap.Error(err),
		)
		return err
	}
	if err := s.store.SetEmbedding(ctx, c, id, res.Embedding); err != nil {
		s.logger.Warn("Storing embedding failed",
			zap.String("collection", c.String()),
			zap.String("id", id),
			zap.Error(err),
		)
		return err
	}
	return nil
}
