// Package extract provides per-page text extraction from PDF files.
package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sensei-notes/senseid/internal/models"
)

// Extractor extracts page text from PDF documents.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the PDF at path and returns one Page per non-blank page,
// 1-indexed and trimmed. Pages with empty or whitespace-only text are
// dropped. Returns an error if the file cannot be read or parsed.
func (e *Extractor) Extract(path string) ([]models.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat PDF: %w", err)
	}
	r, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("parse PDF: %w", err)
	}

	var pages []models.Page
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, models.Page{PageNumber: i, Text: text})
	}
	return pages, nil
}
