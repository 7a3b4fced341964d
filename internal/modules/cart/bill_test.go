package cart

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestAddLineMergesByName(t *testing.T) {
	b := NewBill()

	require.NoError(t, b.AddLine(Candidate{Name: "Tea", UnitPrice: price("20")}, 2))
	require.NoError(t, b.AddLine(Candidate{Name: "Tea", UnitPrice: price("25")}, 3))

	lines := b.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(20)), "merged line keeps first price")
	assert.True(t, lines[0].LineTotal().Equal(decimal.NewFromInt(100)))
}

func TestAddLineNamesAreCaseSensitive(t *testing.T) {
	b := NewBill()
	require.NoError(t, b.AddLine(Candidate{Name: "Tea", UnitPrice: price("20")}, 1))
	require.NoError(t, b.AddLine(Candidate{Name: "tea", UnitPrice: price("20")}, 1))
	assert.Equal(t, 2, b.Len())
}

func TestAddLineValidation(t *testing.T) {
	cases := []struct {
		name string
		c    Candidate
		qty  int
	}{
		{"zero quantity", Candidate{Name: "Tea", UnitPrice: price("20")}, 0},
		{"negative quantity", Candidate{Name: "Tea", UnitPrice: price("20")}, -1},
		{"missing name", Candidate{UnitPrice: price("20")}, 1},
		{"missing price", Candidate{Name: "Tea"}, 1},
		{"negative price", Candidate{Name: "Tea", UnitPrice: price("-1")}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBill()
			b.SetEntry(Entry{Name: "Tea"})
			err := b.AddLine(tc.c, tc.qty)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Zero(t, b.Len())
			assert.Equal(t, "Tea", b.Entry().Name, "entry survives a rejected add")
		})
	}
}

func TestAddLineClearsEntry(t *testing.T) {
	b := NewBill()
	b.SetEntry(Entry{Name: "Samosa", Quantity: 2})
	require.NoError(t, b.AddLine(Candidate{Name: "Samosa", UnitPrice: price("25")}, 2))
	assert.Equal(t, Entry{}, b.Entry())
}

func TestRemoveLine(t *testing.T) {
	b := NewBill()
	for _, n := range []string{"A", "B", "C"} {
		require.NoError(t, b.AddLine(Candidate{Name: n, UnitPrice: price("1")}, 1))
	}

	require.NoError(t, b.RemoveLine(1))
	lines := b.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].Name)
	assert.Equal(t, "C", lines[1].Name)

	assert.ErrorIs(t, b.RemoveLine(2), apperror.ErrIndex)
	assert.ErrorIs(t, b.RemoveLine(-1), apperror.ErrIndex)
	assert.Equal(t, 2, b.Len())
}

func TestTotalEqualsSumOfLines(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	names := []string{"Tea", "Coffee", "Samosa", "Chiura", "Lassi"}
	b := NewBill()

	for i := 0; i < 200; i++ {
		if b.Len() > 0 && rng.Intn(4) == 0 {
			require.NoError(t, b.RemoveLine(rng.Intn(b.Len())))
		} else {
			p := decimal.New(int64(rng.Intn(50000)), -2)
			require.NoError(t, b.AddLine(Candidate{Name: names[rng.Intn(len(names))], UnitPrice: &p}, 1+rng.Intn(5)))
		}

		sum := decimal.Zero
		for _, l := range b.Lines() {
			require.Positive(t, l.Quantity)
			sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		require.True(t, sum.Equal(b.Total()), "step %d: %s != %s", i, sum, b.Total())
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	b := NewBill()
	first := b.InstanceID()

	require.NoError(t, b.Clear(false), "empty bill clears freely")
	assert.NotEqual(t, first, b.InstanceID())

	require.NoError(t, b.AddLine(Candidate{Name: "Tea", UnitPrice: price("20")}, 1))
	assert.ErrorIs(t, b.Clear(false), apperror.ErrConfirmationRequired)
	assert.Equal(t, 1, b.Len())

	before := b.InstanceID()
	require.NoError(t, b.Clear(true))
	assert.Zero(t, b.Len())
	assert.True(t, b.Total().IsZero())
	assert.NotEqual(t, before, b.InstanceID())
}

func TestSnapshotIsDetached(t *testing.T) {
	b := NewBill()
	require.NoError(t, b.AddLine(Candidate{Name: "Tea", UnitPrice: price("20")}, 2))

	snap := b.Snapshot()
	require.NoError(t, b.AddLine(Candidate{Name: "Tea", UnitPrice: price("20")}, 1))
	require.NoError(t, b.RemoveLine(0))

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.True(t, snap.Total().Equal(decimal.NewFromInt(40)))
}

func TestLineItemJSON(t *testing.T) {
	l := LineItem{Name: "Tea", UnitPrice: decimal.RequireFromString("20.5"), Quantity: 2}
	b, err := l.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Tea","price":"20.5","quantity":2,"total":"41"}`, string(b))
}
