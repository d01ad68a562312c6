package extractor

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

// ExtractDOCX returns the non-empty body paragraphs of a Word document,
// whitespace-trimmed and newline-separated, in document order.
func ExtractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name != documentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return "", errors.New("docx: " + documentPart + " not found")
}

// parseDocumentXML walks word/document.xml and collects the text of
// paragraphs that are direct children of w:body. Table paragraphs sit
// deeper and are skipped, as are text box paragraphs anchored inside a
// body paragraph's runs.
func parseDocumentXML(r io.Reader) (string, error) {
	const bodyParagraphDepth = 3 // w:document > w:body > w:p

	dec := xml.NewDecoder(r)
	var (
		paras  []string
		buf    strings.Builder
		depth  int
		inPara bool
		nested int
		inRun  int
		inText bool
	)
	collecting := func() bool { return inPara && nested == 0 && inRun > 0 }
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch el.Name.Local {
			case "p":
				switch {
				case depth == bodyParagraphDepth:
					inPara = true
					buf.Reset()
				case inPara:
					nested++
				}
			case "r":
				inRun++
			case "t":
				inText = collecting()
			case "tab":
				if collecting() {
					buf.WriteByte('\t')
				}
			case "br", "cr":
				if collecting() {
					buf.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				if nested > 0 {
					nested--
				} else if inPara && depth == bodyParagraphDepth {
					if text := strings.TrimSpace(buf.String()); text != "" {
						paras = append(paras, text)
					}
					inPara = false
				}
			case "r":
				inRun--
			case "t":
				inText = false
			}
			depth--
		case xml.CharData:
			if inText {
				buf.Write(el)
			}
		}
	}
	return strings.Join(paras, "\n"), nil
}
