package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfpassist/internal/domain"
	"rfpassist/internal/embedding"
	"rfpassist/internal/embedding/tfidf"
	"rfpassist/internal/retry"
)

var rfpChunks = []string{
	"All contractors must enroll in E-Verify before starting work.",
	"Proposals are due by 5:00 PM on March 1.",
	"The vendor shall maintain general liability insurance.",
}

func tfidfSpace() embedding.Space { return embedding.Fitted(tfidf.Name, tfidf.Fitter{}) }

func fastPolicy(clock retry.Clock) retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, Multiplier: 2, Clock: clock}
}

// flakySpace fails the first n corpus fits.
type flakySpace struct {
	embedding.Space
	failures int
	calls    int
}

func (f *flakySpace) ForCorpus(corpus []string) (embedding.Embedder, []byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, nil, errors.New("embedding service unavailable")
	}
	return f.Space.ForCorpus(corpus)
}

func TestNewFolderID(t *testing.T) {
	id := NewFolderID("City RFP 2024")
	assert.Regexp(t, regexp.MustCompile(`^City_RFP_2024_[0-9a-f]{6}$`), id)
	assert.NotEqual(t, id, NewFolderID("City RFP 2024"))
}

func TestBuildAndLoad(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, tfidfSpace(), fastPolicy(&retry.FakeClock{}), nil)

	meta, err := b.Build(context.Background(), rfpChunks, "City_RFP")
	require.NoError(t, err)
	assert.Equal(t, "City_RFP", meta.DocName)
	assert.FileExists(t, filepath.Join(dir, meta.Folder, MetadataFile))
	assert.FileExists(t, filepath.Join(dir, meta.Folder, "index.db"))

	loaded, err := NewStore(dir, tfidfSpace(), nil).Load(context.Background(), meta.Folder)
	require.NoError(t, err)
	assert.Equal(t, meta, loaded.Metadata)
	assert.Equal(t, len(rfpChunks), loaded.Storage.Len())

	q, err := loaded.Embedder.Embed(context.Background(), []string{"E-Verify enrollment"})
	require.NoError(t, err)
	res, err := loaded.Storage.Search(q[0], 1)
	require.NoError(t, err)
	assert.Equal(t, rfpChunks[0], res[0].Chunk.Text)
}

func TestBuildStoresPreview(t *testing.T) {
	dir := t.TempDir()
	meta, err := NewBuilder(dir, tfidfSpace(), fastPolicy(&retry.FakeClock{}), nil).
		Build(context.Background(), rfpChunks, "doc", WithPreview("Staffing services RFP."))
	require.NoError(t, err)
	assert.Equal(t, "Staffing services RFP.", meta.Preview)

	docs, err := NewStore(dir, tfidfSpace(), nil).List()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, meta, docs[0])
}

func TestBuildRetriesThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	clock := &retry.FakeClock{}
	space := &flakySpace{Space: tfidfSpace(), failures: 2}

	meta, err := NewBuilder(dir, space, fastPolicy(clock), nil).Build(context.Background(), rfpChunks, "doc")
	require.NoError(t, err)
	assert.Equal(t, 3, space.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Sleeps())
	assert.DirExists(t, filepath.Join(dir, meta.Folder))
}

func TestBuildExhaustionLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	space := &flakySpace{Space: tfidfSpace(), failures: 10}

	_, err := NewBuilder(dir, space, fastPolicy(&retry.FakeClock{}), nil).Build(context.Background(), rfpChunks, "doc")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.True(t, retry.IsExhausted(err))
	assert.Equal(t, 3, space.calls)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	listed, err := NewStore(dir, tfidfSpace(), nil).List()
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestBuildRejectsEmptyChunks(t *testing.T) {
	_, err := NewBuilder(t.TempDir(), tfidfSpace(), fastPolicy(&retry.FakeClock{}), nil).Build(context.Background(), nil, "doc")
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
}

func TestListSortsAndSkipsIncomplete(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, tfidfSpace(), fastPolicy(&retry.FakeClock{}), nil)
	zeta, err := b.Build(context.Background(), rfpChunks, "Zeta")
	require.NoError(t, err)
	alpha, err := b.Build(context.Background(), rfpChunks, "Alpha")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".staging-Beta_abcdef"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "orphan"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))

	got, err := NewStore(dir, tfidfSpace(), nil).List()
	require.NoError(t, err)
	assert.Equal(t, []Metadata{alpha, zeta}, got)
}

func TestListMissingRoot(t *testing.T) {
	got, err := NewStore(filepath.Join(t.TempDir(), "absent"), tfidfSpace(), nil).List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	meta, err := NewBuilder(dir, tfidfSpace(), fastPolicy(&retry.FakeClock{}), nil).Build(context.Background(), rfpChunks, "doc")
	require.NoError(t, err)
	store := NewStore(dir, tfidfSpace(), nil)

	for _, folder := range []string{"missing_abc123", "", "../etc", ".staging-x", "a/b"} {
		_, err := store.Load(context.Background(), folder)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound, folder)
	}

	require.NoError(t, os.Remove(filepath.Join(dir, meta.Folder, "index.db")))
	_, err = store.Load(context.Background(), meta.Folder)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

type namedEmbedder struct{ name string }

func (n namedEmbedder) Name() string { return n.name }

func (n namedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

func TestLoadEmbedderMismatch(t *testing.T) {
	dir := t.TempDir()
	meta, err := NewBuilder(dir, tfidfSpace(), fastPolicy(&retry.FakeClock{}), nil).Build(context.Background(), rfpChunks, "doc")
	require.NoError(t, err)

	_, err = NewStore(dir, embedding.Fixed(namedEmbedder{"gemini:models/embedding-001"}), nil).Load(context.Background(), meta.Folder)
	assert.ErrorIs(t, err, domain.ErrEmbedderMismatch)
}

func TestFixedEmbedderIndex(t *testing.T) {
	dir := t.TempDir()
	space := embedding.Fixed(namedEmbedder{"fake"})
	meta, err := NewBuilder(dir, space, fastPolicy(&retry.FakeClock{}), nil).Build(context.Background(), rfpChunks, "doc")
	require.NoError(t, err)

	loaded, err := NewStore(dir, space, nil).Load(context.Background(), meta.Folder)
	require.NoError(t, err)
	assert.Equal(t, "fake", loaded.Embedder.Name())
	assert.Equal(t, 3, loaded.Storage.Len())
}
