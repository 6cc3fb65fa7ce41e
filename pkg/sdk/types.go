package govdocs

import (
	"time"

	"github.com/kailas-cloud/govdocs/internal/domain/search/result"
)

// SearchType names the tier that answered.
type SearchType string

// Search type constants.
const (
	SearchKeyword  SearchType = "keyword"
	SearchSemantic SearchType = "semantic"
	SearchRefined  SearchType = "refined"
)

// Collection names a document partition.
type Collection string

// Collection constants.
const (
	EmploymentNotice     Collection = "EmploymentNotice"
	NotificationCircular Collection = "NotificationCircular"
	Tender               Collection = "Tender"
)

// Result is a single search hit.
type Result struct {
	ID         string
	Collection Collection
	Category   string
	Title      string
	Content    string
	Summary    string
	Categories []string
	Keywords   []string
	Department string
	CreatedAt  time.Time // zero when the document has no date
	FilePath   string
	Bucket     string
	FileType   string
	Similarity *float64 // set for semantic hits only
	Source     SearchType
}

// Response is a successful search.
type Response struct {
	Results         []Result
	SearchType      SearchType
	RefinedKeywords []string // set for refined searches only
}

// Suggestions returns the hints shown when a search finds nothing.
func Suggestions() []string {
	return result.DefaultNotFound().Suggestions
}

func toResponse(r result.Response) Response {
	out := Response{
		Results:    make([]Result, len(r.Results)),
		SearchType: SearchType(r.SearchType),
	}
	if r.SearchType == result.Refined {
		out.RefinedKeywords = r.RefinedKeywords
	}
	for i := range r.Results {
		out.Results[i] = toResult(&r.Results[i])
	}
	return out
}

func toResult(r *result.Result) Result {
	d := &r.Document
	return Result{
		ID:         d.ID,
		Collection: Collection(d.Collection),
		Category:   d.Category(),
		Title:      d.DisplayTitle(),
		Content:    d.Content,
		Summary:    d.Summary,
		Categories: d.Categories,
		Keywords:   d.Keywords,
		Department: d.Department,
		CreatedAt:  d.CreatedAt.Time(),
		FilePath:   d.FilePath,
		Bucket:     d.Bucket,
		FileType:   d.FileType,
		Similarity: r.Similarity,
		Source:     SearchType(r.Source),
	}
}
