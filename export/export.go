// Package export serializes note contents for download.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	FormatTXT = "txt"
	FormatPDF = "pdf"

	Separator = "\n\n---\n\n"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Supported reports whether format can be rendered.
func Supported(format string) bool {
	return format == FormatTXT || format == FormatPDF
}

// ContentType is the response media type for format.
func ContentType(format string) string {
	switch format {
	case FormatTXT:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Join concatenates contents in order with Separator.
func Join(contents []string) string {
	return strings.Join(contents, Separator)
}

// Render produces the download bytes for contents in the given format.
func Render(contents []string, format string) ([]byte, error) {
	switch format {
	case FormatTXT:
		return []byte(Join(contents)), nil
	case FormatPDF:
		return PDF(Join(contents))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// PDF lays text out one paragraph per line on A4 pages in 12pt Arial.
// Characters outside ASCII are transliterated where possible and dropped
// otherwise.
func PDF(text string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)

	for _, line := range strings.Split(NormalizeASCII(text), "\n") {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(10)
			continue
		}
		pdf.MultiCell(0, 10, line, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizeASCII decomposes text (NFKD) and removes every rune outside
// ASCII, so "Café" becomes "Cafe" and "—" disappears.
func NormalizeASCII(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, text)
	if err != nil {
		return ""
	}
	return out
}
