package chi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/kailas-cloud/govdocs/internal/domain"
	domdoc "github.com/kailas-cloud/govdocs/internal/domain/document"
	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
	analyticsuc "github.com/kailas-cloud/govdocs/internal/usecase/analytics"
)

type searchRequest struct {
	Query string `json:"query" validate:"required"`
}

type searchResultItem struct {
	ID         string      `json:"_id"`
	Title      string      `json:"title"`
	Name       string      `json:"name,omitempty"`
	Content    string      `json:"content"`
	Categories []string    `json:"categories"`
	Keywords   []string    `json:"keywords"`
	Department string      `json:"department"`
	CreatedAt  domdoc.Date `json:"createdAt"`
	FilePath   string      `json:"filePath,omitempty"`
	Bucket     string      `json:"bucket,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	FileType   string      `json:"fileType,omitempty"`
	Collection string      `json:"collection"`
	Category   string      `json:"category"`
	Similarity *float64    `json:"similarity,omitempty"`
	Source     string      `json:"source"`
}

type searchResponse struct {
	Results         []searchResultItem `json:"results"`
	SearchType      string             `json:"searchType"`
	RefinedKeywords []string           `json:"refinedKeywords,omitempty"`
}

type notFoundResponse struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type queryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

type analyticsResponse struct {
	Day        string           `json:"day"`
	Total      int64            `json:"total"`
	Searches   map[string]int64 `json:"searches"`
	TopQueries []queryCount     `json:"topQueries"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func resultToItem(r *result.Result) searchResultItem {
	d := &r.Document
	return searchResultItem{
		ID:         d.ID,
		Title:      d.DisplayTitle(),
		Name:       d.Name,
		Content:    d.Content,
		Categories: nonNil(d.Categories),
		Keywords:   nonNil(d.Keywords),
		Department: d.Department,
		CreatedAt:  d.CreatedAt,
		FilePath:   d.FilePath,
		Bucket:     d.Bucket,
		Summary:    d.Summary,
		FileType:   d.FileType,
		Collection: d.Collection.String(),
		Category:   d.Category(),
		Similarity: r.Similarity,
		Source:     string(r.Source),
	}
}

func responseToDTO(resp result.Response) searchResponse {
	items := make([]searchResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = resultToItem(&resp.Results[i])
	}
	out := searchResponse{Results: items, SearchType: string(resp.SearchType)}
	if resp.SearchType == result.Refined {
		out.RefinedKeywords = resp.RefinedKeywords
	}
	return out
}

func summaryToDTO(s analyticsuc.Summary) analyticsResponse {
	top := make([]queryCount, len(s.TopQueries))
	for i, q := range s.TopQueries {
		top[i] = queryCount{Query: q.Query, Count: q.Count}
	}
	return analyticsResponse{
		Day:        s.Day.Format(time.DateOnly),
		Total:      s.Total,
		Searches:   s.Searches,
		TopQueries: top,
	}
}

// SearchJSON renders a cascade outcome with the same body the HTTP API
// returns. ErrNoResults becomes the not-found payload; other errors pass through.
func SearchJSON(resp result.Response, err error) ([]byte, error) {
	if errors.Is(err, domain.ErrNoResults) {
		nf := result.DefaultNotFound()
		return json.MarshalIndent(notFoundResponse{Message: nf.Message, Suggestions: nf.Suggestions}, "", "  ")
	}
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(responseToDTO(resp), "", "  ")
}
