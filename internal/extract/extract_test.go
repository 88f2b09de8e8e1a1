package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxChars int
		want     string
	}{
		{name: "under limit", input: "short", maxChars: 2000, want: "short"},
		{name: "exact limit", input: "abcde", maxChars: 5, want: "abcde"},
		{name: "over limit", input: "abcdefgh", maxChars: 5, want: "abcde"},
		{name: "zero disables", input: "abcdefgh", maxChars: 0, want: "abcdefgh"},
		{name: "negative disables", input: "abcdefgh", maxChars: -1, want: "abcdefgh"},
		{name: "empty input", input: "", maxChars: 5, want: ""},
		{name: "multibyte runes", input: "héllo wörld", maxChars: 6, want: "héllo "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxChars)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxChars, got, tt.want)
			}
		})
	}
}

func TestTruncate_LimitProperty(t *testing.T) {
	long := strings.Repeat("x", 5000)
	got := Truncate(long, 2000)
	if len([]rune(got)) != 2000 {
		t.Errorf("truncated length = %d, want 2000", len([]rune(got)))
	}
}

func TestExtract_NotAPDF(t *testing.T) {
	e := &PDFExtractor{MaxChars: 2000}
	_, err := e.Extract([]byte("this is definitely not a pdf"))
	if err == nil {
		t.Fatal("expected error for non-PDF bytes")
	}
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("error = %v, want ErrUnparseable", err)
	}
}

func TestExtract_EmptyBytes(t *testing.T) {
	e := &PDFExtractor{MaxChars: 2000}
	_, err := e.Extract(nil)
	if err == nil {
		t.Fatal("expected error for empty bytes")
	}
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("error = %v, want ErrUnparseable", err)
	}
}

func TestPDFExtractor_ImplementsExtractor(t *testing.T) {
	var _ Extractor = (*PDFExtractor)(nil)
}
