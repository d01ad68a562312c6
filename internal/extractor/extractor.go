package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"rfpassist/internal/domain"
)

// Extract converts a PDF or DOCX file into plain text, dispatching on the
// file extension. Parse failures are returned as-is and never retried.
func Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return ExtractPDF(path)
	case ".docx":
		return ExtractDOCX(path)
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
}

// ExtractAll extracts every file in order and joins the texts with a newline.
func ExtractAll(paths []string) (string, error) {
	texts := make([]string, 0, len(paths))
	for _, p := range paths {
		text, err := Extract(p)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", filepath.Base(p), err)
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n"), nil
}

// DisplayName derives a document name from a file path: the base name
// without extension, with spaces replaced by underscores.
func DisplayName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, " ", "_")
}
