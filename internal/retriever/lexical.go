package retriever

import (
	"cmp"
	"math"
	"slices"

	"rfpassist/internal/domain"
	"rfpassist/internal/embedding/tfidf"
)

// lexicalSearch ranks chunks by the Ochiai overlap of their term sets with
// the query. It serves queries whose embedding carries no signal.
func lexicalSearch(chunks []domain.Chunk, query string, k int) []domain.SearchResult {
	q := termSet(query)
	out := make([]domain.SearchResult, len(chunks))
	for i, ch := range chunks {
		out[i] = domain.SearchResult{Chunk: ch, Score: ochiai(q, termSet(ch.Text))}
	}
	slices.SortStableFunc(out, func(a, b domain.SearchResult) int { return cmp.Compare(b.Score, a.Score) })
	return out[:min(k, len(out))]
}

// termSet holds the distinct terms of s, as tokenized for TF-IDF.
func termSet(s string) map[string]struct{} {
	tokens := tfidf.Tokenize(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai returns |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}
