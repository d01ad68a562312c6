package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"rfpassist/internal/embedding"
)

// MaxBatch is the largest number of texts sent in one BatchEmbedContents call.
const MaxBatch = 100

// batchFunc embeds at most MaxBatch texts in one provider round trip.
type batchFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Embedder calls the Gemini embedding API.
type Embedder struct {
	model string
	batch batchFunc
}

var _ embedding.Embedder = (*Embedder)(nil)

// New creates an embedder for the given model on an existing client.
func New(client *genai.Client, model string) *Embedder {
	em := client.EmbeddingModel(model)
	return &Embedder{
		model: model,
		batch: func(ctx context.Context, texts []string) ([][]float32, error) {
			b := em.NewBatch()
			for _, t := range texts {
				b.AddContent(genai.Text(t))
			}
			res, err := em.BatchEmbedContents(ctx, b)
			if err != nil {
				return nil, err
			}
			out := make([][]float32, 0, len(res.Embeddings))
			for _, e := range res.Embeddings {
				out = append(out, e.Values)
			}
			return out, nil
		},
	}
}

// Name returns the identifier stored alongside indexes built by this embedder.
func (e *Embedder) Name() string { return "gemini:" + e.model }

// Embed returns one vector per text, in order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	dim := 0
	for start := 0; start < len(texts); start += MaxBatch {
		end := min(start+MaxBatch, len(texts))
		vecs, err := e.batch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("gemini embeddings failed: %w", err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d texts", len(vecs), end-start)
		}
		for _, v := range vecs {
			if len(v) == 0 {
				return nil, errors.New("gemini embeddings: empty vector returned")
			}
			if dim == 0 {
				dim = len(v)
			} else if len(v) != dim {
				return nil, fmt.Errorf("gemini embeddings: dimension changed from %d to %d", dim, len(v))
			}
			out = append(out, v)
		}
	}
	return out, nil
}
