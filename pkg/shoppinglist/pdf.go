package shoppinglist

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "list"
	lineHeight = 8.0
)

// ErrFontRequired is returned when text falls outside cp1252 and no UTF-8 font is configured.
var ErrFontRequired = errors.New("shoppinglist: text needs a UTF-8 font")

// PDFOptions controls the PDF rendition.
type PDFOptions struct {
	Title string
	// FontPath points at a UTF-8 TTF font. When empty, core Helvetica is used
	// and text outside cp1252 is rejected with ErrFontRequired.
	FontPath string
	Now      time.Time
}

// RenderPDF writes an A4 document with a title block followed by lines, breaking pages as needed.
func RenderPDF(w io.Writer, lines []string, opts PDFOptions) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(opts.Title, true)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1252")
	if opts.FontPath != "" {
		pdf.AddUTF8Font(fontFamily, "", opts.FontPath)
		family = fontFamily
		tr = func(s string) string { return s }
	} else {
		for _, s := range append([]string{opts.Title}, lines...) {
			if !encodable(tr, s) {
				return ErrFontRequired
			}
		}
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(family, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(family, "", 18)
	pdf.CellFormat(0, 12, tr(opts.Title), "", 1, "L", false, 0, "")
	if !opts.Now.IsZero() {
		pdf.SetFont(family, "", 10)
		pdf.CellFormat(0, 6, opts.Now.Format("02.01.2006"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(family, "", 12)
	for _, line := range lines {
		pdf.MultiCell(0, lineHeight, tr(line), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// encodable reports whether tr maps every rune of s. fpdf substitutes '.' for unmapped runes.
func encodable(tr func(string) string, s string) bool {
	for _, r := range s {
		if r >= 0x80 && tr(string(r)) == "." {
			return false
		}
	}
	return true
}
