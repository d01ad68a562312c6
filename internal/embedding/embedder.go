package embedding

import "context"

// Embedder converts free text into numeric vectors. Every vector it returns
// for the same index shares one embedding space.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Fitter is implemented by embedders whose vector space depends on the corpus.
// Fit learns the space and returns serialisable state; Restore rebuilds the
// same embedder from that state when an index is loaded.
type Fitter interface {
	Fit(corpus []string) (Embedder, []byte, error)
	Restore(state []byte) (Embedder, error)
}

// IsZero reports whether v has no non-zero component.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
