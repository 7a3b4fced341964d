package invoice

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	inv, err := Finalize(snapshot(teaLine, samosaLine), CashRecord(d("200")), "sonish", issued)
	require.NoError(t, err)
	inv.Number = "INV-00001"

	out, err := ExportXLSX(Aggregate("2024-03-14", []*Invoice{inv}))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Items", "Transactions"}, f.GetSheetList())

	v, err := f.GetCellValue("Items", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Tea", v)
	v, err = f.GetCellValue("Items", "B2")
	require.NoError(t, err)
	assert.Equal(t, "5", v)

	v, err = f.GetCellValue("Transactions", "A2")
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", v)
	v, err = f.GetCellValue("Transactions", "D2")
	require.NoError(t, err)
	assert.Equal(t, "CASH", v)
}
