package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/logger"
)

const (
	// MaxRefinedKeywords caps the keywords taken from one model reply.
	MaxRefinedKeywords = 5
	minKeywordRunes    = 3
)

// Refiner asks a generative model for alternative search keywords.
type Refiner struct {
	gen         Generator
	sampleLimit int
}

// NewRefiner creates a refiner that puts at most sampleLimit samples in the prompt.
func NewRefiner(gen Generator, sampleLimit int) *Refiner {
	return &Refiner{gen: gen, sampleLimit: sampleLimit}
}

// Refine returns up to MaxRefinedKeywords keywords, or nil on any failure.
func (r *Refiner) Refine(ctx context.Context, query string, samples []domdoc.Sample) []string {
	if r.sampleLimit > 0 && len(samples) > r.sampleLimit {
		samples = samples[:r.sampleLimit]
	}

	reply, err := r.gen.Generate(ctx, buildPrompt(query, samples))
	if err != nil {
		logger.FromContext(ctx).Warn("Keyword refinement failed", zap.Error(err))
		return nil
	}

	kws := parseKeywords(reply)
	logger.FromContext(ctx).Debug("Keyword refinement completed",
		zap.Strings("keywords", kws),
		zap.Int("samples", len(samples)),
	)
	return kws
}

func buildPrompt(query string, samples []domdoc.Sample) string {
	var b strings.Builder
	b.WriteString("You help citizens search a government document portal that holds ")
	b.WriteString("employment notices, notifications/circulars and tenders.\n")
	fmt.Fprintf(&b, "The search query %q matched no documents.\n", query)
	if len(samples) > 0 {
		b.WriteString("Sample documents from the portal:\n")
		for _, s := range samples {
			fmt.Fprintf(&b, "- Title: %s | Categories: %s | Keywords: %s | Department: %s\n",
				s.Title, strings.Join(s.Categories, ", "), strings.Join(s.Keywords, ", "), s.Department)
		}
	}
	fmt.Fprintf(&b, "Suggest up to %d short keywords or categories, in the vocabulary of these documents, ", MaxRefinedKeywords)
	b.WriteString("that would find what the user is looking for. ")
	b.WriteString("Reply with a comma-separated list only.")
	return b.String()
}

// parseKeywords splits a model reply on commas and newlines and cleans each entry.
func parseKeywords(reply string) []string {
	parts := strings.FieldsFunc(reply, func(r rune) bool { return r == ',' || r == '\n' })

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, MaxRefinedKeywords)
	for _, p := range parts {
		kw := cleanKeyword(p)
		if utf8.RuneCountInString(kw) < minKeywordRunes {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
		if len(out) == MaxRefinedKeywords {
			break
		}
	}
	return out
}

var listMarker = regexp.MustCompile(`^\s*(?:\d+[.)]\s+|[-*•]\s*)`)

// cleanKeyword strips list markers ("-", "*", "1.", "2)") and quotes.
func cleanKeyword(s string) string {
	s = listMarker.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t\r\"'`")
	return strings.TrimSpace(s)
}
