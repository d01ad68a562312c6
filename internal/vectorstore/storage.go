package vectorstore

import "rfpassist/internal/domain"

// Searcher ranks stored chunks against a query vector.
type Searcher interface {
	Search(vector []float32, topK int) ([]domain.SearchResult, error)
}

// Snapshot is everything persisted for one embedding index: the embedder
// that produced the vectors, its fitted state (if any) and the chunk rows.
type Snapshot struct {
	Embedder string
	State    []byte
	Chunks   []domain.Chunk
	Vectors  [][]float32
}
