package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"rfpassist/internal/domain"
)

const (
	// DefaultMaxSize is the default chunk bound in characters.
	DefaultMaxSize = 1500
	// DefaultOverlap is the default number of characters shared by neighbours.
	DefaultOverlap = 100
)

// DefaultSeparators are tried coarsest first: paragraph, line, sentence, word.
var DefaultSeparators = []string{"\n\n", "\n", ".", " "}

var _ domain.Chunker = (*RecursiveChunker)(nil)

// RecursiveChunker splits text on the coarsest separator that yields pieces
// under the size bound, then merges pieces into overlapping chunks.
type RecursiveChunker struct {
	maxSize    int
	overlap    int
	separators []string
}

// Option configures a RecursiveChunker.
type Option func(*RecursiveChunker)

// WithMaxSize sets the chunk bound in characters.
func WithMaxSize(size int) Option {
	return func(c *RecursiveChunker) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *RecursiveChunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator ladder.
func WithSeparators(seps ...string) Option {
	return func(c *RecursiveChunker) {
		var kept []string
		for _, s := range seps {
			if s != "" {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			c.separators = kept
		}
	}
}

// NewRecursive creates a chunker. Overlap is clamped below the chunk size.
func NewRecursive(opts ...Option) *RecursiveChunker {
	c := &RecursiveChunker{
		maxSize:    DefaultMaxSize,
		overlap:    DefaultOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize / 4
	}
	return c
}

// Span is a chunk's byte range in the source text.
type Span struct {
	Start, End int
}

// Chunk returns the chunks of text in source order.
func (c *RecursiveChunker) Chunk(text string) []string {
	spans := c.Spans(text)
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, text[s.Start:s.End])
	}
	return out
}

// Spans returns the byte ranges of every chunk. Consecutive spans overlap
// by at most the configured overlap and never leave a gap, except where a
// whitespace-only chunk was dropped.
func (c *RecursiveChunker) Spans(text string) []Span {
	if text == "" {
		return nil
	}
	pieces := c.split(text, 0, c.separators)
	return c.merge(text, pieces)
}

// piece is a byte range whose rune length is at most maxSize.
type piece struct {
	start, end, runes int
}

func (c *RecursiveChunker) split(text string, offset int, seps []string) []piece {
	n := utf8.RuneCountInString(text)
	if n <= c.maxSize {
		return []piece{{start: offset, end: offset + len(text), runes: n}}
	}
	for i, sep := range seps {
		if !strings.Contains(text, sep) {
			continue
		}
		var out []piece
		pos := offset
		for _, part := range strings.SplitAfter(text, sep) {
			if part == "" {
				continue
			}
			out = append(out, c.split(part, pos, seps[i+1:])...)
			pos += len(part)
		}
		return out
	}
	return c.hardCut(text, offset)
}

// hardCut slices an unbroken run at exactly maxSize characters.
func (c *RecursiveChunker) hardCut(text string, offset int) []piece {
	var out []piece
	start, count := 0, 0
	for i := range text {
		if count == c.maxSize {
			out = append(out, piece{start: offset + start, end: offset + i, runes: count})
			start, count = i, 0
		}
		count++
	}
	out = append(out, piece{start: offset + start, end: offset + len(text), runes: count})
	return out
}

func (c *RecursiveChunker) merge(text string, pieces []piece) []Span {
	var (
		spans  []Span
		window []piece
		total  int
		fresh  bool
	)
	emit := func() {
		s := Span{Start: window[0].start, End: window[len(window)-1].end}
		if strings.TrimFunc(text[s.Start:s.End], unicode.IsSpace) != "" {
			spans = append(spans, s)
		}
		fresh = false
	}
	for _, p := range pieces {
		if len(window) > 0 && total+p.runes > c.maxSize {
			emit()
			for len(window) > 0 && (total > c.overlap || total+p.runes > c.maxSize) {
				total -= window[0].runes
				window = window[1:]
			}
		}
		window = append(window, p)
		total += p.runes
		fresh = true
	}
	if fresh && len(window) > 0 {
		emit()
	}
	return spans
}
