package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is a labelled value printed in the document body.
type Field struct {
	Label string
	Value string
}

// Document describes a single-page printable form with an optional table.
type Document struct {
	Title    string
	Subtitle string
	Fields   []Field
	Table    *Dataset
	Footer   string
}

// PDFExporter renders documents into A4 PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF bytes for doc.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" && len(doc.Fields) == 0 && doc.Table == nil {
		return nil, fmt.Errorf("pdf requires a title, fields or a table")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(doc.Title)), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	for _, f := range doc.Fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 8, tr(f.Label), "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 8, tr(f.Value), "1", 1, "", false, 0, "")
	}

	if doc.Table != nil && len(doc.Table.Columns) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		colWidth := 180.0 / float64(len(doc.Table.Columns))
		for _, col := range doc.Table.Columns {
			pdf.CellFormat(colWidth, 8, tr(col.heading()), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, row := range doc.Table.Rows {
			for _, col := range doc.Table.Columns {
				pdf.CellFormat(colWidth, 7, tr(row[col.Key]), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if doc.Footer != "" {
		pdf.Ln(10)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, tr(doc.Footer), "", "L", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
