package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin  = 12.0
	rowHeight   = 7.0
	titleHeight = 16.0
)

var (
	brandFill  = [3]int{0, 102, 153}
	stripeFill = [3]int{245, 247, 246}
)

// WritePDF renders the document as a landscape A4 PDF. Output depends only on the document.
func WritePDF(w io.Writer, doc Document, rowsPerPage int) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle(doc.Title, false)
	pdf.AliasNbPages("{nb}")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	usable := pageWidth - 2*pageMargin

	pdf.SetFooterFunc(func() {
		pdf.SetY(pageHeight - pageMargin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	for _, rows := range doc.Pages(rowsPerPage) {
		pdf.AddPage()
		drawTitle(pdf, tr, doc, usable)
		drawTableHeader(pdf, tr, doc.Columns, usable)

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(30, 30, 30)
		for i, row := range rows {
			fill := i%2 == 1
			if fill {
				pdf.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
			}
			for c, col := range doc.Columns {
				width := col.Width * usable
				cell := fitText(pdf, tr(row[c]), width-2)
				pdf.CellFormat(width, rowHeight, cell, "B", 0, "L", fill, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func drawTitle(pdf *fpdf.Fpdf, tr func(string) string, doc Document, usable float64) {
	pdf.SetFillColor(brandFill[0], brandFill[1], brandFill[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(usable, titleHeight, tr(doc.Title), "", 1, "C", true, 0, "")
	pdf.Ln(2)

	pdf.SetTextColor(30, 30, 30)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range doc.HeaderLines {
		pdf.CellFormat(usable, 5, tr(line), "", 1, "L", false, 0, "")
	}
	if len(doc.HeaderLines) > 0 {
		pdf.Ln(2)
	}
}

func drawTableHeader(pdf *fpdf.Fpdf, tr func(string) string, columns []Column, usable float64) {
	pdf.SetFillColor(brandFill[0], brandFill[1], brandFill[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	for _, col := range columns {
		pdf.CellFormat(col.Width*usable, rowHeight, tr(strings.ToUpper(col.Title)), "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// fitText shortens s with an ellipsis until it fits in width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}

// WriteCSV writes the header lines as comment rows, then the column titles and rows.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{doc.Title}); err != nil {
		return err
	}
	for _, line := range doc.HeaderLines {
		if err := cw.Write([]string{line}); err != nil {
			return err
		}
	}

	titles := make([]string, len(doc.Columns))
	for i, col := range doc.Columns {
		titles[i] = col.Title
	}
	if err := cw.Write(titles); err != nil {
		return err
	}
	if err := cw.WriteAll(doc.Rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
