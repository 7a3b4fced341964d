package invoice

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func snapshot(lines ...cart.LineItem) cart.Snapshot {
	return cart.Snapshot{InstanceID: uuid.New(), Lines: lines}
}

var (
	teaLine    = cart.LineItem{Name: "Tea", UnitPrice: d("20"), Quantity: 5}
	samosaLine = cart.LineItem{Name: "Samosa", UnitPrice: d("25"), Quantity: 2}
	issued     = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)
)

func TestFinalizeCash(t *testing.T) {
	snap := snapshot(teaLine, samosaLine)
	pay := PaymentRecord{Method: MethodCash, Cash: &CashPayment{AmountTendered: d("200"), Change: d("999")}}

	inv, err := Finalize(snap, pay, "sonish", issued)
	require.NoError(t, err)

	assert.True(t, inv.Total.Equal(d("150")))
	assert.True(t, inv.Payment.Cash.Change.Equal(d("50")), "change is recomputed, not trusted")
	assert.Equal(t, snap.InstanceID, inv.BillID)
	assert.Equal(t, issued, inv.IssuedAt)
	assert.Equal(t, "sonish", inv.Cashier)
	assert.Empty(t, inv.Number)
}

func TestFinalizeExactCash(t *testing.T) {
	inv, err := Finalize(snapshot(teaLine), CashRecord(d("100")), "sonish", issued)
	require.NoError(t, err)
	assert.True(t, inv.Payment.Cash.Change.IsZero())
}

func TestFinalizeEmptyBillCheckedFirst(t *testing.T) {
	_, err := Finalize(snapshot(), CashRecord(d("0")), "", issued)
	assert.ErrorIs(t, err, apperror.ErrIncompleteBill)

	_, err = Finalize(snapshot(), OnlineRecord("", OnlineFailed), "sonish", issued)
	assert.ErrorIs(t, err, apperror.ErrIncompleteBill)
}

func TestFinalizeUnsettled(t *testing.T) {
	_, err := Finalize(snapshot(teaLine), CashRecord(d("99.99")), "sonish", issued)
	assert.ErrorIs(t, err, apperror.ErrUnsettledPayment)

	for _, st := range []OnlineStatus{OnlinePending, OnlineFailed, OnlineError} {
		_, err := Finalize(snapshot(teaLine), OnlineRecord("4411", st), "sonish", issued)
		assert.ErrorIs(t, err, apperror.ErrUnsettledPayment, string(st))
	}
}

func TestFinalizeValidation(t *testing.T) {
	_, err := Finalize(snapshot(teaLine), CashRecord(d("100")), "  ", issued)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = Finalize(snapshot(teaLine), PaymentRecord{Method: MethodCash}, "sonish", issued)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = Finalize(snapshot(teaLine), PaymentRecord{Method: "CHEQUE"}, "sonish", issued)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestFinalizeOnline(t *testing.T) {
	inv, err := Finalize(snapshot(teaLine), OnlineRecord("20240314-77", OnlinePaid), "yadu", issued)
	require.NoError(t, err)
	assert.Equal(t, MethodOnline, inv.Payment.Method)
	assert.Nil(t, inv.Payment.Cash)
	assert.Equal(t, "20240314-77", inv.Payment.Online.TransactionRef)
}

func TestFinalizeDetachesFromSnapshot(t *testing.T) {
	snap := snapshot(teaLine)
	inv, err := Finalize(snap, CashRecord(d("100")), "sonish", issued)
	require.NoError(t, err)

	snap.Lines[0].Quantity = 99
	assert.Equal(t, 5, inv.Lines[0].Quantity)
}
