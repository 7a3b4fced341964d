package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
)

func TestAggregate(t *testing.T) {
	inv1, err := Finalize(snapshot(teaLine, samosaLine), CashRecord(d("200")), "sonish", issued)
	require.NoError(t, err)
	inv2, err := Finalize(snapshot(cart.LineItem{Name: "Tea", UnitPrice: d("20"), Quantity: 1}), OnlineRecord("77", OnlinePaid), "yadu", issued)
	require.NoError(t, err)

	report := Aggregate("2024-03-14", []*Invoice{inv1, inv2})

	assert.Equal(t, 2, report.Summary.TotalTransactions)
	assert.Equal(t, 8, report.Summary.TotalItems)
	assert.True(t, report.Summary.TotalRevenue.Equal(d("170")))
	assert.True(t, report.Summary.CashRevenue.Equal(d("150")))
	assert.True(t, report.Summary.OnlineRevenue.Equal(d("20")))

	require.Len(t, report.AggregatedItems, 2)
	tea := report.AggregatedItems[0]
	assert.Equal(t, "Tea", tea.Name)
	assert.Equal(t, 6, tea.Quantity)
	assert.Equal(t, 2, tea.Transactions)
	assert.True(t, tea.Total.Equal(d("120")))
	assert.Equal(t, "Samosa", report.AggregatedItems[1].Name)
}

func TestAggregateEmptyDay(t *testing.T) {
	report := Aggregate("2024-03-15", nil)
	assert.NotNil(t, report.Transactions)
	assert.NotNil(t, report.AggregatedItems)
	assert.Zero(t, report.Summary.TotalTransactions)
	assert.True(t, report.Summary.TotalRevenue.IsZero())
}
