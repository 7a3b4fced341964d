package invoice

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
)

// Template is the fixed letterhead and formatting of a printed invoice.
type Template struct {
	BusinessName   string
	Address        string
	Contact        string
	TaxID          string
	Footer         string
	CurrencySymbol string
	RowsPerPage    int
	Location       *time.Location
	// Compress deflates page streams. Disabled in tests to inspect output.
	Compress bool
}

// A4 portrait, millimetres.
const (
	marginX      = 15.0
	rowHeight    = 7.0
	bottomMargin = 60.0
	colIndex     = 20.0
	colName      = 35.0
	colQty       = 120.0
	colRate      = 140.0
	colAmount    = 170.0
)

// Renderer produces the printable invoice document.
type Renderer struct{ tpl Template }

func NewRenderer(tpl Template) *Renderer {
	if tpl.RowsPerPage < 1 {
		tpl.RowsPerPage = 18
	}
	if tpl.Location == nil {
		tpl.Location = time.UTC
	}
	if tpl.CurrencySymbol == "" {
		tpl.CurrencySymbol = "Rs."
	}
	return &Renderer{tpl: tpl}
}

// Render returns inv as a PDF. The same invoice always renders to the same bytes.
func (r *Renderer) Render(inv *Invoice) ([]byte, error) {
	pdf := r.build(inv)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) build(inv *Invoice) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.tpl.Compress)
	pdf.SetCreationDate(inv.IssuedAt)
	pdf.SetModificationDate(inv.IssuedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetAuthor(r.tpl.BusinessName, true)
	pdf.SetCreator(inv.Cashier, true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pages := paginate(inv.Lines, r.tpl.RowsPerPage)
	var y float64
	row := 0
	for i, page := range pages {
		pdf.AddPage()
		if i == 0 {
			y = r.letterhead(pdf, tr, inv)
		} else {
			y = 20
		}
		y = r.tableHeader(pdf, y)
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range page {
			row++
			pdf.Text(colIndex, y, strconv.Itoa(row))
			pdf.Text(colName, y, tr(line.Name))
			pdf.Text(colQty, y, strconv.Itoa(line.Quantity))
			pdf.Text(colRate, y, r.money(line.UnitPrice))
			pdf.Text(colAmount, y, r.money(line.LineTotal()))
			y += rowHeight
		}
	}

	_, pageH := pdf.GetPageSize()
	if y > pageH-bottomMargin {
		pdf.AddPage()
		y = 20
	}
	y = r.summary(pdf, y+5, inv)

	pdf.SetFont("Helvetica", "", 9)
	r.centered(pdf, y+15, tr(r.tpl.Footer))
	return pdf
}

func (r *Renderer) letterhead(pdf *fpdf.Fpdf, tr func(string) string, inv *Invoice) float64 {
	pageW, _ := pdf.GetPageSize()
	y := 20.0

	pdf.SetFont("Helvetica", "B", 20)
	r.centered(pdf, y, tr(r.tpl.BusinessName))
	y += 8
	pdf.SetFont("Helvetica", "B", 12)
	r.centered(pdf, y, tr(r.tpl.Address))
	y += 6
	pdf.SetFont("Helvetica", "", 10)
	r.centered(pdf, y, tr(r.tpl.Contact))
	y += 5
	r.centered(pdf, y, tr(r.tpl.TaxID))
	y += 10
	pdf.SetFont("Helvetica", "B", 16)
	r.centered(pdf, y, "INVOICE")
	y += 12

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(marginX, y-5, pageW-2*marginX, 18, "D")
	pdf.Text(20, y, "Invoice No:")
	pdf.Text(20, y+8, "Date:")
	pdf.Text(pageW-80, y, "Cashier:")
	pdf.Text(pageW-80, y+8, "Payment:")

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(50, y, inv.Number)
	pdf.Text(50, y+8, inv.IssuedAt.In(r.tpl.Location).Format("2006-01-02 15:04"))
	pdf.Text(pageW-55, y, tr(inv.Cashier))
	pdf.Text(pageW-55, y+8, string(inv.Payment.Method))
	return y + 25
}

func (r *Renderer) tableHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pageW, _ := pdf.GetPageSize()
	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(marginX, y-5, pageW-2*marginX, 8, "F")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(colIndex, y, "#")
	pdf.Text(colName, y, "Item Description")
	pdf.Text(colQty, y, "Qty")
	pdf.Text(colRate, y, "Rate")
	pdf.Text(colAmount, y, "Amount")
	return y + 10
}

func (r *Renderer) summary(pdf *fpdf.Fpdf, y float64, inv *Invoice) float64 {
	pageW, _ := pdf.GetPageSize()
	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(marginX, y-5, pageW-2*marginX, 30, "D")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(colQty, y, "Total Amount:")
	pdf.Text(colAmount, y, r.money(inv.Total))
	y += 8

	switch {
	case inv.Payment.Cash != nil:
		pdf.Text(colQty, y, "Amount Given:")
		pdf.Text(colAmount, y, r.money(inv.Payment.Cash.AmountTendered))
		y += 8
		pdf.Text(colQty, y, "Change:")
		pdf.Text(colAmount, y, r.money(inv.Payment.Cash.Change))
		y += 8
	case inv.Payment.Online != nil:
		pdf.Text(colQty, y, "Transaction ID:")
		pdf.SetFont("Helvetica", "", 10)
		ref := inv.Payment.Online.TransactionRef
		if ref == "" {
			ref = "N/A"
		}
		pdf.Text(colAmount, y, ref)
		y += 8
	}
	return y + 10
}

func (r *Renderer) centered(pdf *fpdf.Fpdf, y float64, s string) {
	pageW, _ := pdf.GetPageSize()
	pdf.Text((pageW-pdf.GetStringWidth(s))/2, y, s)
}

func (r *Renderer) money(d decimal.Decimal) string {
	return r.tpl.CurrencySymbol + " " + d.StringFixed(2)
}

// paginate splits lines into pages of at most perPage rows. An empty bill
// still gets one page.
func paginate(lines []cart.LineItem, perPage int) [][]cart.LineItem {
	if len(lines) == 0 {
		return [][]cart.LineItem{nil}
	}
	var pages [][]cart.LineItem
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	return pages
}
