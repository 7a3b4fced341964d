package invoice

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the report as a workbook with an item sheet and a
// transaction sheet.
func ExportXLSX(report *SalesReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const items, txns = "Items", "Transactions"
	if err := f.SetSheetName("Sheet1", items); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(txns); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	rows := [][]interface{}{{"Item", "Quantity", "Rate", "Transactions", "Total"}}
	for _, it := range report.AggregatedItems {
		rows = append(rows, []interface{}{it.Name, it.Quantity, it.Price.InexactFloat64(), it.Transactions, it.Total.InexactFloat64()})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Total Revenue", report.Summary.TotalRevenue.InexactFloat64()},
		[]interface{}{"Cash", report.Summary.CashRevenue.InexactFloat64()},
		[]interface{}{"Online", report.Summary.OnlineRevenue.InexactFloat64()},
		[]interface{}{"Items Sold", report.Summary.TotalItems},
		[]interface{}{"Transactions", report.Summary.TotalTransactions},
	)
	if err := writeRows(f, items, rows); err != nil {
		return nil, err
	}

	rows = [][]interface{}{{"Invoice No", "Date", "Cashier", "Payment", "Reference", "Items", "Total"}}
	for _, inv := range report.Transactions {
		ref := ""
		if inv.Payment.Online != nil {
			ref = inv.Payment.Online.TransactionRef
		}
		count := 0
		for _, l := range inv.Lines {
			count += l.Quantity
		}
		rows = append(rows, []interface{}{
			inv.Number, inv.IssuedAt.Format("2006-01-02 15:04"), inv.Cashier,
			string(inv.Payment.Method), ref, count, inv.Total.InexactFloat64(),
		})
	}
	if err := writeRows(f, txns, rows); err != nil {
		return nil, err
	}

	for _, sheet := range []string{items, txns} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return nil, err
		}
	}

	var buf *bytes.Buffer
	if buf, err = f.WriteToBuffer(); err != nil {
		return nil, fmt.Errorf("write sales workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
