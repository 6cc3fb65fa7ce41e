package document

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/logger"
	"github.com/kailas-cloud/govdocs/internal/metrics"
)

// Repo reads the three document collections from MongoDB.
type Repo struct {
	db    *mongo.Database
	names map[domdoc.Collection]string
}

// New creates a document repository. names overrides the stored collection
// name per collection; missing entries fall back to the default plural name.
func New(db *mongo.Database, names map[domdoc.Collection]string) *Repo {
	resolved := make(map[domdoc.Collection]string, len(domdoc.All()))
	for _, c := range domdoc.All() {
		resolved[c] = c.DefaultStoreName()
		if n, ok := names[c]; ok && n != "" {
			resolved[c] = n
		}
	}
	return &Repo{db: db, names: resolved}
}

func (r *Repo) coll(c domdoc.Collection) (*mongo.Collection, error) {
	name, ok := r.names[c]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", c, domain.ErrNotFound)
	}
	return r.db.Collection(name), nil
}

// KeywordMatch returns documents whose text fields match pattern (a regex source).
func (r *Repo) KeywordMatch(ctx context.Context, c domdoc.Collection, pattern string, limit int) ([]domdoc.Document, error) {
	opts := options.Find().SetProjection(withoutEmbedding)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, c, textMatchFilter(pattern), opts)
}

// SemanticCandidates returns embedded documents for vector scoring.
// An empty pattern skips the text prefilter.
func (r *Repo) SemanticCandidates(
	ctx context.Context, c domdoc.Collection, pattern string, limit int,
) ([]domdoc.Document, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, c, candidateFilter(pattern), opts)
}

// Sample returns up to n random documents reduced to refiner-safe fields.
func (r *Repo) Sample(ctx context.Context, c domdoc.Collection, n int) ([]domdoc.Document, error) {
	if n <= 0 {
		return nil, nil
	}
	coll, err := r.coll(c)
	if err != nil {
		return nil, err
	}
	cur, err := coll.Aggregate(ctx, samplePipeline(n))
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", c, err)
	}
	return decodeAll(ctx, c, cur)
}

// FindByKeywords returns documents whose keywords or categories contain any of kws.
func (r *Repo) FindByKeywords(
	ctx context.Context, c domdoc.Collection, kws []string, limit int,
) ([]domdoc.Document, error) {
	if len(kws) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(withoutEmbedding)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, c, keywordMembershipFilter(kws), opts)
}

// MissingEmbeddings returns documents without a stored vector.
func (r *Repo) MissingEmbeddings(ctx context.Context, c domdoc.Collection, limit int) ([]domdoc.Document, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, c, missingEmbeddingFilter(), opts)
}

// SetEmbedding stores the vector for one document.
func (r *Repo) SetEmbedding(ctx context.Context, c domdoc.Collection, id string, vec []float32) error {
	coll, err := r.coll(c)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": parseID(id)},
		bson.M{"$set": bson.M{fieldEmbedding: vec}},
	)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("document %s/%s: %w", c, id, domain.ErrNotFound)
	}
	return nil
}

// Ping checks the database is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (r *Repo) find(
	ctx context.Context, c domdoc.Collection, filter bson.M, opts *options.FindOptions,
) ([]domdoc.Document, error) {
	coll, err := r.coll(c)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c, err)
	}
	return decodeAll(ctx, c, cur)
}

func decodeAll(ctx context.Context, c domdoc.Collection, cur *mongo.Cursor) ([]domdoc.Document, error) {
	defer func() { _ = cur.Close(ctx) }()

	// One malformed record must not hide the rest of the collection.
	var docs []domdoc.Document
	for cur.Next(ctx) {
		var dto docDTO
		if err := cur.Decode(&dto); err != nil {
			metrics.UndecodableDocumentsTotal.WithLabelValues(c.String()).Inc()
			logger.FromContext(ctx).Warn("Skipping undecodable document",
				zap.String("collection", c.String()),
				zap.String("id", idString(cur.Current.Lookup("_id"))),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, dto.toDomain(c))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor %s: %w", c, err)
	}
	return docs, nil
}
