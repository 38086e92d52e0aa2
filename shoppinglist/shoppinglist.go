// Package shoppinglist renders an aggregated shopping list as text or PDF.
package shoppinglist

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const header = "Shopping list:"

// Item is one aggregated line: the summed amount of an ingredient in one
// measurement unit across every recipe in the cart.
type Item struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// Format selects the rendering of a shopping list.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a query value to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatPDF):
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

func (f Format) Filename() string {
	return "shopping_list." + string(f)
}

// Render writes items in the given format.
func Render(f Format, items []Item) ([]byte, error) {
	if f == FormatPDF {
		return PDF(items)
	}
	return Text(items), nil
}

// Lines returns the numbered lines of the list, without the header.
func Lines(items []Item) []string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s - %d %s", i+1, item.Name, item.Amount, item.MeasurementUnit))
	}
	return lines
}

// Text renders the header, a blank line and one line per item.
func Text(items []Item) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString("\n\n")
	for _, line := range Lines(items) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

const (
	pdfFontSize   = 12
	pdfLineHeight = 8
	pdfMargin     = 20
)

// PDF renders the list on A4 pages with a fixed line height. A new page is
// started when the current one is full.
func PDF(items []Item) ([]byte, error) {
	pdf := layoutPDF(items)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func layoutPDF(items []Item) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("Shopping list", true)
	pdf.AddPage()

	// Core fonts are cp1252 encoded.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", pdfFontSize+2)
	pdf.CellFormat(0, pdfLineHeight, tr(header), "", 1, "L", false, 0, "")
	pdf.Ln(pdfLineHeight)

	pdf.SetFont("Helvetica", "", pdfFontSize)
	for _, line := range Lines(items) {
		pdf.CellFormat(0, pdfLineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	return pdf
}
