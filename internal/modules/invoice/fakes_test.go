package invoice

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/rochak-pos/internal/modules/payment"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

type memRepo struct {
	mu       sync.Mutex
	seq      int
	invoices []*Invoice
	byKey    map[string]*Invoice
	creates  int
}

func newMemRepo() *memRepo { return &memRepo{byKey: map[string]*Invoice{}} }

func (m *memRepo) Create(_ context.Context, inv *Invoice, key string) (*Invoice, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if key != "" {
		if existing, ok := m.byKey[key]; ok {
			return existing, false, nil
		}
	}
	m.seq++
	stored := *inv
	stored.Number = fmt.Sprintf("INV-%05d", m.seq)
	m.invoices = append(m.invoices, &stored)
	if key != "" {
		m.byKey[key] = &stored
	}
	return &stored, true, nil
}

func (m *memRepo) GetByNumber(_ context.Context, number string) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.Number == number {
			return inv, nil
		}
	}
	return nil, apperror.NotFound("invoice")
}

func (m *memRepo) GetByIdempotencyKey(_ context.Context, key string) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.byKey[key]; ok {
		return inv, nil
	}
	return nil, apperror.NotFound("invoice")
}

func (m *memRepo) ListBetween(_ context.Context, from, to time.Time) ([]*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Invoice
	for _, inv := range m.invoices {
		if !inv.IssuedAt.Before(from) && inv.IssuedAt.Before(to) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invoices)
}

type fakePayments struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]payment.Attempt
	cleared  []uuid.UUID
}

func newFakePayments() *fakePayments {
	return &fakePayments{attempts: map[uuid.UUID]payment.Attempt{}}
}

func (f *fakePayments) put(a payment.Attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[a.BillID] = a
}

func (f *fakePayments) Settled(_ context.Context, billID uuid.UUID) (*payment.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[billID]
	if !ok {
		return nil, apperror.NotFound("payment attempt")
	}
	return &a, nil
}

func (f *fakePayments) Clear(billID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.attempts, billID)
	f.cleared = append(f.cleared, billID)
}
