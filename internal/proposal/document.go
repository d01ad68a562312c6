// Package proposal builds the proposal document from a company profile and
// content gathered from a processed RFP.
package proposal

import (
	"strconv"
	"strings"
)

// Kind identifies a block type.
type Kind int

const (
	KindHeading Kind = iota
	KindParagraph
	KindBullet
	KindNumbered
	KindTable
	KindPageBreak
)

// Align is the horizontal alignment of a paragraph.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Run is a span of text with uniform formatting.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
}

// Block is one element of the document body.
type Block struct {
	Kind Kind
	// Level is 1 or 2 for headings.
	Level  int
	Align  Align
	Runs   []Run
	Indent int
	Number int
	Rows   [][]string
	Header bool
}

// Text returns the concatenated run text.
func (b Block) Text() string {
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Document is an ordered list of blocks.
type Document struct {
	Blocks []Block
}

// Headings returns the text of every heading at the given level.
func (d Document) Headings(level int) []string {
	var out []string
	for _, b := range d.Blocks {
		if b.Kind == KindHeading && b.Level == level {
			out = append(out, b.Text())
		}
	}
	return out
}

// PlainText renders the document as text, one block per line.
func (d Document) PlainText() string {
	var sb strings.Builder
	for _, b := range d.Blocks {
		switch b.Kind {
		case KindPageBreak:
			sb.WriteString("\f\n")
			continue
		case KindTable:
			for _, row := range b.Rows {
				sb.WriteString(strings.Join(row, " | "))
				sb.WriteByte('\n')
			}
			continue
		case KindBullet:
			sb.WriteString(strings.Repeat("  ", b.Indent))
			sb.WriteString("• ")
		case KindNumbered:
			sb.WriteString(strconv.Itoa(b.Number))
			sb.WriteString(". ")
		}
		sb.WriteString(b.Text())
		sb.WriteByte('\n')
	}
	return sb.String()
}

type builder struct {
	blocks []Block
}

func (b *builder) heading(level int, text string) {
	b.blocks = append(b.blocks, Block{Kind: KindHeading, Level: level, Runs: []Run{{Text: text}}})
}

func (b *builder) centeredHeading(level int, text string) {
	b.blocks = append(b.blocks, Block{Kind: KindHeading, Level: level, Align: AlignCenter, Runs: []Run{{Text: text}}})
}

func (b *builder) para(runs ...Run) {
	b.blocks = append(b.blocks, Block{Kind: KindParagraph, Runs: runs})
}

func (b *builder) centered(runs ...Run) {
	b.blocks = append(b.blocks, Block{Kind: KindParagraph, Align: AlignCenter, Runs: runs})
}

func (b *builder) bullet(indent int, runs ...Run) {
	b.blocks = append(b.blocks, Block{Kind: KindBullet, Indent: indent, Runs: runs})
}

func (b *builder) numbered(n int, runs ...Run) {
	b.blocks = append(b.blocks, Block{Kind: KindNumbered, Number: n, Runs: runs})
}

func (b *builder) table(header bool, rows ...[]string) {
	b.blocks = append(b.blocks, Block{Kind: KindTable, Header: header, Rows: rows})
}

func (b *builder) pageBreak() {
	b.blocks = append(b.blocks, Block{Kind: KindPageBreak})
}

func plain(s string) Run  { return Run{Text: s} }
func bold(s string) Run   { return Run{Text: s, Bold: true} }
func italic(s string) Run { return Run{Text: s, Italic: true} }
