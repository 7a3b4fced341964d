package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/modules/catalog"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Catalog is the part of the catalog service the cart resolves items against.
type Catalog interface {
	GetItem(ctx context.Context, id string) (*catalog.CatalogItem, error)
	FindByName(ctx context.Context, name string) (*catalog.CatalogItem, error)
}

// Service defines bill operations for a cashier's session.
type Service interface {
	Open(ctx context.Context, cashier string) (*BillView, error)
	Get(ctx context.Context, cashier, sessionID string) (*BillView, error)
	AddLine(ctx context.Context, cashier, sessionID string, req AddLineRequest) (*BillView, error)
	RemoveLine(ctx context.Context, cashier, sessionID string, index int) (*BillView, error)
	SetEntry(ctx context.Context, cashier, sessionID string, e Entry) (*BillView, error)
	Clear(ctx context.Context, cashier, sessionID string, confirmed bool) (*BillView, error)
	Snapshot(ctx context.Context, cashier, sessionID string) (Snapshot, error)
	// Reset takes a sold snapshot off the bill after checkout.
	Reset(ctx context.Context, sessionID string, sold Snapshot) error
	// OnClear registers fn to run, outside the bill lock, after a bill is cleared.
	OnClear(fn func(billID uuid.UUID))
}

// AddLineRequest names an item by catalog id, or by name with an optional price.
type AddLineRequest struct {
	ItemID   string           `json:"itemId"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Quantity int              `json:"quantity"`
	ImageURL string           `json:"imageUrl"`
}

// BillView is the JSON shape of a session's bill.
type BillView struct {
	ID         uuid.UUID       `json:"id"`
	InstanceID uuid.UUID       `json:"instanceId"`
	Cashier    string          `json:"cashier"`
	OpenedAt   time.Time       `json:"openedAt"`
	Lines      []LineItem      `json:"items"`
	Total      decimal.Decimal `json:"totalAmount"`
	Entry      Entry           `json:"entry"`
}

type service struct {
	store   *Store
	catalog Catalog

	mu      sync.Mutex
	onClear func(billID uuid.UUID)
}

func NewService(store *Store, catalog Catalog) Service {
	return &service{store: store, catalog: catalog}
}

func (s *service) OnClear(fn func(billID uuid.UUID)) {
	s.mu.Lock()
	s.onClear = fn
	s.mu.Unlock()
}

func (s *service) Open(ctx context.Context, cashier string) (*BillView, error) {
	if strings.TrimSpace(cashier) == "" {
		return nil, apperror.Validation("cashier is required")
	}
	sess := s.store.Open(cashier)
	return s.view(sess, nil)
}

func (s *service) Get(ctx context.Context, cashier, sessionID string) (*BillView, error) {
	sess, err := s.session(cashier, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess, nil)
}

func (s *service) AddLine(ctx context.Context, cashier, sessionID string, req AddLineRequest) (*BillView, error) {
	sess, err := s.session(cashier, sessionID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperror.Validation("quantity must be a positive integer")
	}
	// Resolve before locking; catalog lookups may hit the network.
	c, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.view(sess, func(b *Bill) error { return b.AddLine(c, req.Quantity) })
}

func (s *service) RemoveLine(ctx context.Context, cashier, sessionID string, index int) (*BillView, error) {
	sess, err := s.session(cashier, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess, func(b *Bill) error { return b.RemoveLine(index) })
}

func (s *service) SetEntry(ctx context.Context, cashier, sessionID string, e Entry) (*BillView, error) {
	sess, err := s.session(cashier, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess, func(b *Bill) error {
		b.SetEntry(e)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, cashier, sessionID string, confirmed bool) (*BillView, error) {
	sess, err := s.session(cashier, sessionID)
	if err != nil {
		return nil, err
	}
	v, err := s.view(sess, func(b *Bill) error { return b.Clear(confirmed) })
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	fn := s.onClear
	s.mu.Unlock()
	if fn != nil {
		fn(sess.ID)
	}
	return v, nil
}

func (s *service) Snapshot(ctx context.Context, cashier, sessionID string) (Snapshot, error) {
	sess, err := s.session(cashier, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	err = sess.Do(func(b *Bill) error {
		snap = b.Snapshot()
		return nil
	})
	return snap, err
}

func (s *service) Reset(ctx context.Context, sessionID string, sold Snapshot) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return apperror.NotFound("bill")
	}
	_, err = s.store.Reset(id, sold)
	return err
}

// session looks up a bill owned by cashier. Another cashier's bill is reported
// as missing rather than forbidden.
func (s *service) session(cashier, sessionID string) (*Session, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, apperror.NotFound("bill")
	}
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Cashier != cashier {
		return nil, apperror.NotFound("bill")
	}
	return sess, nil
}

// view applies mutate (if any) and renders the bill under the same lock.
func (s *service) view(sess *Session, mutate func(b *Bill) error) (*BillView, error) {
	var v *BillView
	err := sess.Do(func(b *Bill) error {
		if mutate != nil {
			if err := mutate(b); err != nil {
				return err
			}
		}
		v = &BillView{
			ID:         sess.ID,
			InstanceID: b.InstanceID(),
			Cashier:    sess.Cashier,
			OpenedAt:   sess.OpenedAt,
			Lines:      b.Lines(),
			Total:      b.Total(),
			Entry:      b.Entry(),
		}
		return nil
	})
	return v, err
}

func (s *service) resolve(ctx context.Context, req AddLineRequest) (Candidate, error) {
	if req.ItemID != "" {
		item, err := s.catalog.GetItem(ctx, req.ItemID)
		if err != nil {
			return Candidate{}, err
		}
		return fromCatalog(item), nil
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Candidate{}, apperror.Validation("item name is required")
	}
	if req.Price != nil {
		price := req.Price.Round(2)
		return Candidate{Name: name, UnitPrice: &price, ImageRef: req.ImageURL}, nil
	}

	item, err := s.catalog.FindByName(ctx, name)
	if errors.Is(err, apperror.ErrNotFound) {
		return Candidate{}, apperror.Validation("price is required for ad-hoc item %q", name)
	}
	if err != nil {
		return Candidate{}, err
	}
	return fromCatalog(item), nil
}

func fromCatalog(item *catalog.CatalogItem) Candidate {
	price := item.UnitPrice
	return Candidate{Name: item.Name, UnitPrice: &price, ImageRef: item.ImageRef}
}
