package chi

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
)

func TestSearchJSON_Results(t *testing.T) {
	resp := result.Response{
		Results:    []result.Result{result.New(domdoc.Document{ID: "1", Collection: domdoc.Tender, Title: "Bridge"}, result.Keyword)},
		SearchType: result.Keyword,
	}
	b, err := SearchJSON(resp, nil)
	if err != nil {
		t.Fatalf("SearchJSON: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["searchType"] != "keyword" {
		t.Errorf("searchType = %v", raw["searchType"])
	}
	if _, ok := raw["suggestions"]; ok {
		t.Error("results payload must not carry suggestions")
	}
}

func TestSearchJSON_NotFound(t *testing.T) {
	b, err := SearchJSON(result.Response{}, domain.ErrNoResults)
	if err != nil {
		t.Fatalf("SearchJSON: %v", err)
	}
	var nf notFoundResponse
	if err := json.Unmarshal(b, &nf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(nf.Suggestions) != 3 {
		t.Errorf("suggestions = %v", nf.Suggestions)
	}
}

func TestSearchJSON_PassesErrors(t *testing.T) {
	boom := errors.New("boom")
	if _, err := SearchJSON(result.Response{}, boom); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestResponseToDTO_RefinedKeywordsOnlyForRefined(t *testing.T) {
	dto := responseToDTO(result.Response{SearchType: result.Semantic, RefinedKeywords: []string{"x"}})
	if dto.RefinedKeywords != nil {
		t.Errorf("refinedKeywords = %v", dto.RefinedKeywords)
	}
	if dto.Results == nil {
		t.Error("results must encode as an empty array")
	}
}
