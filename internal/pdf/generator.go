// Package pdf renders a proof sheet of placed fields: one A4 page per
// document page, with each field drawn as a labeled box at its stored
// coordinates. Pages use point units so geometry maps 1:1 onto the 595x842
// reference frame the editor places against.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/crm-contracts/internal/model"
	"github.com/nurpe/crm-contracts/internal/placement"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Render(contract model.Contract, documents []model.Document, fields []model.FieldWithRefs) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	// Core fonts are cp1252; translate so accented titles and names render.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	fieldsByDocument := make(map[int64][]model.FieldWithRefs)
	for _, field := range fields {
		fieldsByDocument[field.DocumentID] = append(fieldsByDocument[field.DocumentID], field)
	}

	for _, doc := range documents {
		docFields := fieldsByDocument[doc.ID]
		for page := 1; page <= lastPage(docFields); page++ {
			pdf.AddPage()
			drawHeader(pdf, tr, contract.Title, doc.Filename, page)
			for _, field := range docFields {
				if onPage(field, page) {
					drawField(pdf, tr, field)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawHeader(pdf *gofpdf.Fpdf, tr func(string) string, title, filename string, page int) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.Text(10, 12, tr(fmt.Sprintf("%s — %s — page %d", title, filename, page)))
	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(0, 0, placement.PageWidth, placement.PageHeight, "D")
}

func drawField(pdf *gofpdf.Fpdf, tr func(string) string, field model.FieldWithRefs) {
	x := field.Position.X + float64(field.HorizontalAdjust)
	y := field.Position.Y + float64(field.VerticalAdjust)

	pdf.SetDrawColor(30, 100, 200)
	pdf.SetFillColor(225, 237, 255)
	pdf.Rect(x, y, field.Size.Width, field.Size.Height, "FD")

	label := string(field.FieldType)
	if field.SignerName != nil {
		label = fmt.Sprintf("%s — %s", label, *field.SignerName)
	}
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(30, 100, 200)
	pdf.Text(x+2, y+9, tr(label))
}

// lastPage finds the highest page any field targets; documents without
// fields still get a first page so the preview shows them.
func lastPage(fields []model.FieldWithRefs) int {
	last := 1
	for _, field := range fields {
		pages, err := placement.ExpandPages(field.Pages)
		if err != nil {
			continue
		}
		for _, page := range pages {
			if page > last {
				last = page
			}
		}
	}
	return last
}

func onPage(field model.FieldWithRefs, page int) bool {
	pages, err := placement.ExpandPages(field.Pages)
	if err != nil {
		return false
	}
	for _, p := range pages {
		if p == page {
			return true
		}
	}
	return false
}
