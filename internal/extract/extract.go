// Package extract produces bounded text excerpts from stored documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnparseable indicates the bytes are not a readable document.
var ErrUnparseable = errors.New("extract: unparseable document")

// Result holds the extracted excerpt and the document's page count.
type Result struct {
	Text  string
	Pages int
}

// Extractor turns raw document bytes into a text excerpt. Implementations
// must be pure over the provided bytes.
type Extractor interface {
	Extract(data []byte) (Result, error)
}

// PDFExtractor extracts per-page text from PDF bytes, concatenated in page
// order and truncated to MaxChars characters. MaxChars <= 0 disables
// truncation.
type PDFExtractor struct {
	MaxChars int
}

// Extract implements Extractor.
func (e *PDFExtractor) Extract(data []byte) (result Result, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnparseable, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return Result{}, fmt.Errorf("extract: page %d: %w", i, err)
		}
		if sb.Len() > 0 && text != "" {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	return Result{
		Text:  Truncate(sb.String(), e.MaxChars),
		Pages: pages,
	}, nil
}

// Truncate bounds s to at most maxChars characters. maxChars <= 0 returns s
// unchanged.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
