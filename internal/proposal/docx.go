package proposal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/v2/color"
	"github.com/unidoc/unioffice/v2/common/license"
	"github.com/unidoc/unioffice/v2/document"
	"github.com/unidoc/unioffice/v2/measurement"
	"github.com/unidoc/unioffice/v2/schema/soo/wml"
)

const fontFamily = "Calibri"

var headingColor = color.RGB(0, 77, 113)

// headingSize maps heading levels to point sizes.
var headingSize = map[int]measurement.Distance{
	1: 24 * measurement.Point,
	2: 14 * measurement.Point,
}

// SetLicense applies a metered license key. An empty key is a no-op.
func SetLicense(key string) error {
	if key == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("set document license: %w", err)
	}
	return nil
}

// WriteDOCX renders doc into a Word file at path, creating parent directories.
func WriteDOCX(doc Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	w := document.New()

	for _, b := range doc.Blocks {
		switch b.Kind {
		case KindHeading:
			p := w.AddParagraph()
			align(p, b.Align)
			for _, r := range b.Runs {
				run := p.AddRun()
				addText(run, r.Text)
				props := run.Properties()
				props.SetFontFamily(fontFamily)
				props.SetBold(true)
				props.SetSize(headingSize[b.Level])
				props.SetColor(headingColor)
			}
		case KindParagraph:
			p := w.AddParagraph()
			align(p, b.Align)
			addRuns(p, b.Runs, "")
		case KindBullet:
			p := w.AddParagraph()
			p.Properties().SetStartIndent(measurement.Distance(b.Indent+1) * 0.25 * measurement.Inch)
			addRuns(p, b.Runs, "• ")
		case KindNumbered:
			p := w.AddParagraph()
			p.Properties().SetStartIndent(0.25 * measurement.Inch)
			addRuns(p, b.Runs, fmt.Sprintf("%d. ", b.Number))
		case KindTable:
			addTable(w, b)
		case KindPageBreak:
			w.AddParagraph().AddRun().AddPageBreak()
		}
	}

	footer := w.AddFooter()
	fp := footer.AddParagraph()
	fp.Properties().SetAlignment(wml.ST_JcCenter)
	fp.AddRun().AddField(document.FieldCurrentPage)
	w.BodySection().SetFooter(footer, wml.ST_HdrFtrDefault)

	if err := w.SaveToFile(path); err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}
	return nil
}

func align(p document.Paragraph, a Align) {
	if a == AlignCenter {
		p.Properties().SetAlignment(wml.ST_JcCenter)
	}
}

func addRuns(p document.Paragraph, runs []Run, prefix string) {
	if prefix != "" {
		run := p.AddRun()
		run.Properties().SetFontFamily(fontFamily)
		run.Properties().SetSize(12 * measurement.Point)
		run.AddText(prefix)
	}
	for _, r := range runs {
		run := p.AddRun()
		props := run.Properties()
		props.SetFontFamily(fontFamily)
		props.SetSize(12 * measurement.Point)
		if r.Bold {
			props.SetBold(true)
		}
		if r.Italic {
			props.SetItalic(true)
		}
		addText(run, r.Text)
	}
}

// addText writes text, turning newlines into line breaks.
func addText(run document.Run, text string) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			run.AddBreak()
		}
		if line != "" {
			run.AddText(line)
		}
	}
}

func addTable(w *document.Document, b Block) {
	t := w.AddTable()
	t.Properties().SetWidthPercent(100)
	t.Properties().Borders().SetAll(wml.ST_BorderSingle, color.Auto, 1*measurement.Point)
	for i, row := range b.Rows {
		r := t.AddRow()
		header := b.Header && i == 0
		for _, cell := range row {
			p := r.AddCell().AddParagraph()
			if header {
				p.Properties().SetAlignment(wml.ST_JcCenter)
			}
			addRuns(p, []Run{{Text: cell, Bold: header}}, "")
		}
	}
}
