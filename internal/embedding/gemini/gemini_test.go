package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEmbedder(fn batchFunc) *Embedder {
	return &Embedder{model: "models/embedding-001", batch: fn}
}

func TestEmbedSplitsIntoBatches(t *testing.T) {
	var sizes []int
	e := fakeEmbedder(func(_ context.Context, texts []string) ([][]float32, error) {
		sizes = append(sizes, len(texts))
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(len(texts[i])), 1}
		}
		return out, nil
	})
	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "chunk"
	}

	vecs, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, 250)
	assert.Equal(t, []int{100, 100, 50}, sizes)
	assert.Equal(t, "gemini:models/embedding-001", e.Name())
}

func TestEmbedWrapsProviderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	e := fakeEmbedder(func(context.Context, []string) ([][]float32, error) { return nil, boom })

	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)
}

func TestEmbedRejectsMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		resp [][]float32
	}{
		{"count mismatch", [][]float32{{1, 2}}},
		{"empty vector", [][]float32{{1, 2}, {}}},
		{"dimension change", [][]float32{{1, 2}, {1, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := fakeEmbedder(func(context.Context, []string) ([][]float32, error) { return tt.resp, nil })
			_, err := e.Embed(context.Background(), []string{"a", "b"})
			assert.Error(t, err)
		})
	}
}
