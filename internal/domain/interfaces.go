package domain

// Chunk is a contiguous segment of a document kept in an embedding index.
type Chunk struct {
	Index int
	Text  string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Chunker splits document text into bounded, overlapping segments.
type Chunker interface {
	Chunk(text string) []string
}
