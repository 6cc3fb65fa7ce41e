package govdocs

import (
	"context"
	"strings"

	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/govdocs/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, query string) (result.Response, error)
}

func (m *mockSearchUC) Search(ctx context.Context, query string) (result.Response, error) {
	return m.searchFn(ctx, query)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- public Embedder / Generator mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockGenerator struct {
	out     string
	prompts []string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.out, nil
}

// --- document store fake ---

// memStore serves every collection from one slice. KeywordMatch and
// FindByKeywords do plain substring checks on the title.
type memStore struct {
	docs  []domdoc.Document
	pings int
}

func (s *memStore) KeywordMatch(_ context.Context, c domdoc.Collection, pattern string, _ int) ([]domdoc.Document, error) {
	var out []domdoc.Document
	for _, d := range s.docs {
		if d.Collection == c && strings.Contains(strings.ToLower(d.Title), strings.ToLower(pattern)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) SemanticCandidates(_ context.Context, c domdoc.Collection, _ string, _ int) ([]domdoc.Document, error) {
	var out []domdoc.Document
	for _, d := range s.docs {
		if d.Collection == c && d.HasEmbedding() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) Sample(_ context.Context, c domdoc.Collection, n int) ([]domdoc.Document, error) {
	var out []domdoc.Document
	for _, d := range s.docs {
		if d.Collection == c && len(out) < n {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) FindByKeywords(_ context.Context, c domdoc.Collection, kws []string, _ int) ([]domdoc.Document, error) {
	var out []domdoc.Document
	for _, d := range s.docs {
		if d.Collection != c {
			continue
		}
		for _, k := range d.Keywords {
			if containsFold(kws, k) {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) Ping(_ context.Context) error {
	s.pings++
	return nil
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
