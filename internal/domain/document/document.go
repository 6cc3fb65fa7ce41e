package document

import (
	"strings"
)

// MaxEmbeddingText bounds the text sent to the embedding model for one document.
const MaxEmbeddingText = 8000

// Document is a stored government document as seen by the search core (read-only).
type Document struct {
	ID         string
	Collection Collection
	Title      string
	Name       string
	Content    string
	Categories []string
	Keywords   []string
	Department string
	CreatedAt  Date
	Embedding  []float32 // not exposed to clients
	FilePath   string
	Bucket     string
	Summary    string
	FileType   string
}

// DisplayTitle returns the title, falling back to the name some collections use instead.
func (d *Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// Category returns the display category of the owning collection.
func (d *Document) Category() string {
	return d.Collection.Category()
}

// HasEmbedding reports whether a vector is stored for the document.
func (d *Document) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// EmbeddingText builds the text a document is embedded from.
// Field order matches what the upload flow used, so backfilled vectors are comparable.
func (d *Document) EmbeddingText() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{
		d.DisplayTitle(),
		d.Summary,
		strings.Join(d.Categories, ", "),
		strings.Join(d.Keywords, ", "),
		d.Department,
		d.Content,
	} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	text := strings.Join(parts, "\n")
	if len(text) > MaxEmbeddingText {
		text = truncateUTF8(text, MaxEmbeddingText)
	}
	return text
}

// Sample is the reduced view of a document handed to the query refiner.
// Content and embeddings are left out to keep prompts small.
type Sample struct {
	Title      string
	Categories []string
	Keywords   []string
	Department string
}

// ToSample strips a document down to its refiner-safe fields.
func (d *Document) ToSample() Sample {
	return Sample{
		Title:      d.DisplayTitle(),
		Categories: d.Categories,
		Keywords:   d.Keywords,
		Department: d.Department,
	}
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
