package embedding

import "fmt"

// Space names the embedding space an index lives in and hands out the
// embedder for building a new index or querying a stored one.
type Space interface {
	Name() string
	ForCorpus(corpus []string) (Embedder, []byte, error)
	ForIndex(state []byte) (Embedder, error)
}

// Fixed wraps an embedder whose vectors do not depend on the corpus.
func Fixed(e Embedder) Space { return fixed{e} }

type fixed struct{ e Embedder }

func (f fixed) Name() string { return f.e.Name() }

func (f fixed) ForCorpus([]string) (Embedder, []byte, error) { return f.e, nil, nil }

func (f fixed) ForIndex([]byte) (Embedder, error) { return f.e, nil }

// Fitted wraps a corpus-dependent embedder family under a stable name.
func Fitted(name string, f Fitter) Space { return fitted{name: name, f: f} }

type fitted struct {
	name string
	f    Fitter
}

func (f fitted) Name() string { return f.name }

func (f fitted) ForCorpus(corpus []string) (Embedder, []byte, error) {
	e, state, err := f.f.Fit(corpus)
	if err != nil {
		return nil, nil, fmt.Errorf("fit %s: %w", f.name, err)
	}
	return e, state, nil
}

func (f fitted) ForIndex(state []byte) (Embedder, error) {
	e, err := f.f.Restore(state)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", f.name, err)
	}
	return e, nil
}
