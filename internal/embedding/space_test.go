package embedding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfpassist/internal/embedding"
	"rfpassist/internal/embedding/tfidf"
)

type constEmbedder struct{}

func (constEmbedder) Name() string { return "const" }

func (constEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func TestFixedSpace(t *testing.T) {
	s := embedding.Fixed(constEmbedder{})
	assert.Equal(t, "const", s.Name())

	e, state, err := s.ForCorpus([]string{"a"})
	require.NoError(t, err)
	assert.Nil(t, state)
	assert.Equal(t, "const", e.Name())

	e, err = s.ForIndex(nil)
	require.NoError(t, err)
	assert.Equal(t, "const", e.Name())
}

func TestFittedSpaceRoundTrip(t *testing.T) {
	s := embedding.Fitted(tfidf.Name, tfidf.Fitter{})
	corpus := []string{"staffing services for the city", "insurance and indemnification terms"}

	built, state, err := s.ForCorpus(corpus)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	loaded, err := s.ForIndex(state)
	require.NoError(t, err)

	a, err := built.Embed(context.Background(), []string{"city staffing"})
	require.NoError(t, err)
	b, err := loaded.Embed(context.Background(), []string{"city staffing"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = s.ForIndex([]byte("{"))
	assert.Error(t, err)
}

func TestIsZero(t *testing.T) {
	assert.True(t, embedding.IsZero(nil))
	assert.True(t, embedding.IsZero([]float32{0, 0}))
	assert.False(t, embedding.IsZero([]float32{0, 1e-9}))
}
