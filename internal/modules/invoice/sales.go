package invoice

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregate summarises one day's invoices. Items are grouped by exact name and
// ordered by revenue, highest first.
func Aggregate(date string, invoices []*Invoice) *SalesReport {
	report := &SalesReport{
		Date:            date,
		Transactions:    invoices,
		AggregatedItems: []AggregatedItem{},
		Summary: SalesSummary{
			TotalRevenue:  decimal.Zero,
			CashRevenue:   decimal.Zero,
			OnlineRevenue: decimal.Zero,
		},
	}
	if report.Transactions == nil {
		report.Transactions = []*Invoice{}
	}

	index := map[string]int{}
	for _, inv := range invoices {
		report.Summary.TotalTransactions++
		report.Summary.TotalRevenue = report.Summary.TotalRevenue.Add(inv.Total)
		switch inv.Payment.Method {
		case MethodCash:
			report.Summary.CashRevenue = report.Summary.CashRevenue.Add(inv.Total)
		case MethodOnline:
			report.Summary.OnlineRevenue = report.Summary.OnlineRevenue.Add(inv.Total)
		}

		seen := map[string]bool{}
		for _, line := range inv.Lines {
			report.Summary.TotalItems += line.Quantity

			i, ok := index[line.Name]
			if !ok {
				i = len(report.AggregatedItems)
				index[line.Name] = i
				report.AggregatedItems = append(report.AggregatedItems, AggregatedItem{
					Name:  line.Name,
					Price: line.UnitPrice,
					Total: decimal.Zero,
				})
			}
			item := &report.AggregatedItems[i]
			item.Quantity += line.Quantity
			item.Total = item.Total.Add(line.LineTotal())
			if !seen[line.Name] {
				item.Transactions++
				seen[line.Name] = true
			}
		}
	}

	sort.SliceStable(report.AggregatedItems, func(i, j int) bool {
		a, b := report.AggregatedItems[i], report.AggregatedItems[j]
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})
	return report
}
