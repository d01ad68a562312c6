// Package retriever answers similarity queries against stored indexes,
// keeping recently used indexes in memory.
package retriever

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"rfpassist/internal/domain"
	"rfpassist/internal/embedding"
	"rfpassist/internal/index"
	"rfpassist/internal/logger"
)

// DefaultCapacity is the number of indexes kept loaded.
const DefaultCapacity = 8

// DefaultTopK is the number of chunks returned when k is not positive.
const DefaultTopK = 4

// Loader reads a stored index.
type Loader interface {
	Load(ctx context.Context, folder string) (*index.Loaded, error)
}

// Retriever returns the chunks of a folder's index most similar to a query.
// Loaded indexes are cached by folder id and only leave the cache through
// eviction. Safe for concurrent use.
type Retriever struct {
	loader Loader
	cache  *lru.Cache[string, *index.Loaded]
	group  singleflight.Group
	log    *logrus.Entry
}

// New creates a retriever caching up to capacity indexes.
func New(loader Loader, capacity int, log *logrus.Entry) (*Retriever, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[string, *index.Loaded](capacity)
	if err != nil {
		return nil, err
	}
	return &Retriever{loader: loader, cache: cache, log: logger.OrDiscard(log)}, nil
}

// Search returns the top k chunks for query in source-relevance order.
func (r *Retriever) Search(ctx context.Context, folder, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	idx, err := r.load(ctx, folder)
	if err != nil {
		return nil, err
	}
	vecs, err := idx.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 || embedding.IsZero(vecs[0]) {
		r.log.WithField("folder_id", folder).Debug("query has no embedding signal, using lexical ranking")
		return lexicalSearch(idx.Storage.Chunks(), query, k), nil
	}
	return idx.Storage.Search(vecs[0], k)
}

func (r *Retriever) load(ctx context.Context, folder string) (*index.Loaded, error) {
	if idx, ok := r.cache.Get(folder); ok {
		return idx, nil
	}
	v, err, _ := r.group.Do(folder, func() (any, error) {
		if idx, ok := r.cache.Get(folder); ok {
			return idx, nil
		}
		idx, err := r.loader.Load(ctx, folder)
		if err != nil {
			return nil, err
		}
		r.cache.Add(folder, idx)
		r.log.WithFields(logrus.Fields{"folder_id": folder, "chunks": idx.Storage.Len()}).Info("index loaded")
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*index.Loaded), nil
}

// Cached reports whether folder's index is currently loaded.
func (r *Retriever) Cached(folder string) bool { return r.cache.Contains(folder) }

// Texts returns the chunk texts of results in order.
func Texts(results []domain.SearchResult) []string {
	out := make([]string, len(results))
	for i, res := range results {
		out[i] = res.Chunk.Text
	}
	return out
}
