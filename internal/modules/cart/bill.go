package cart

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Candidate is an item ready to be placed on a bill: either a catalog item or
// an ad-hoc one typed in by the cashier. UnitPrice is nil when none was given.
type Candidate struct {
	Name      string
	UnitPrice *decimal.Decimal
	ImageRef  string
}

// LineItem is one row of a bill. Its total is always derived, never stored.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageRef  string
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		Quantity int             `json:"quantity"`
		Total    decimal.Decimal `json:"total"`
		ImageURL string          `json:"imageUrl,omitempty"`
	}{l.Name, l.UnitPrice, l.Quantity, l.LineTotal(), l.ImageRef})
}

// Entry is the item the cashier is in the middle of typing. It carries no
// invariants of its own and is dropped once a line is added or the bill clears.
type Entry struct {
	ItemID   string           `json:"itemId,omitempty"`
	Name     string           `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity int              `json:"quantity,omitempty"`
}

// Bill is the mutable list of lines for one customer. It is not safe for
// concurrent use; Session serialises access.
type Bill struct {
	instanceID uuid.UUID
	version    uint64 // bumped on every change to lines
	lines      []LineItem
	entry      Entry
}

func NewBill() *Bill { return &Bill{instanceID: uuid.New()} }

// InstanceID changes every time the bill is emptied, so it identifies one sale.
func (b *Bill) InstanceID() uuid.UUID { return b.instanceID }

// AddLine merges c into the line with the same name or appends a new one.
// A merged line keeps the unit price it was first added with.
func (b *Bill) AddLine(c Candidate, quantity int) error {
	if quantity <= 0 {
		return apperror.Validation("quantity must be a positive integer")
	}
	if c.Name == "" {
		return apperror.Validation("item name is required")
	}
	if c.UnitPrice == nil {
		return apperror.Validation("price is required for ad-hoc item %q", c.Name)
	}
	if c.UnitPrice.IsNegative() {
		return apperror.Validation("price must not be negative")
	}

	for i := range b.lines {
		if b.lines[i].Name == c.Name {
			b.lines[i].Quantity += quantity
			b.entry = Entry{}
			b.version++
			return nil
		}
	}
	b.lines = append(b.lines, LineItem{
		Name:      c.Name,
		UnitPrice: *c.UnitPrice,
		Quantity:  quantity,
		ImageRef:  c.ImageRef,
	})
	b.entry = Entry{}
	b.version++
	return nil
}

func (b *Bill) RemoveLine(index int) error {
	if index < 0 || index >= len(b.lines) {
		return apperror.New(apperror.KindIndex, "line index %d out of range [0,%d)", index, len(b.lines))
	}
	b.lines = append(b.lines[:index], b.lines[index+1:]...)
	b.version++
	return nil
}

func (b *Bill) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// Clear empties the bill and starts a new instance. Discarding lines needs an
// explicit confirmation.
func (b *Bill) Clear(confirmed bool) error {
	if len(b.lines) > 0 && !confirmed {
		return apperror.New(apperror.KindConfirmationRequired,
			"bill has %d line(s); confirm to clear", len(b.lines))
	}
	b.reset()
	return nil
}

func (b *Bill) reset() {
	b.lines = nil
	b.entry = Entry{}
	b.instanceID = uuid.New()
	b.version++
}

// settle takes a sold snapshot off the bill. If the bill changed after the
// snapshot was taken, the extra quantities stay on as a new instance.
func (b *Bill) settle(sold Snapshot) {
	if b.version == sold.Version {
		b.reset()
		return
	}
	soldQty := make(map[string]int, len(sold.Lines))
	for _, l := range sold.Lines {
		soldQty[l.Name] += l.Quantity
	}
	kept := make([]LineItem, 0, len(b.lines))
	for _, l := range b.lines {
		l.Quantity -= soldQty[l.Name]
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	b.lines = kept
	b.instanceID = uuid.New()
	b.version++
}

func (b *Bill) Lines() []LineItem {
	out := make([]LineItem, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *Bill) Len() int { return len(b.lines) }

func (b *Bill) SetEntry(e Entry) { b.entry = e }

func (b *Bill) Entry() Entry { return b.entry }

// Snapshot is an immutable copy of a bill handed to checkout.
type Snapshot struct {
	InstanceID uuid.UUID
	Version    uint64
	Lines      []LineItem
}

func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (b *Bill) Snapshot() Snapshot {
	return Snapshot{InstanceID: b.instanceID, Version: b.version, Lines: b.Lines()}
}
