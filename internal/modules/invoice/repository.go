package invoice

import (
	"context"
	"time"
)

// Repository defines the interface for invoice storage.
type Repository interface {
	// Create stores inv and assigns its number. If idempotencyKey was already
	// used, the stored invoice is returned instead and created is false.
	Create(ctx context.Context, inv *Invoice, idempotencyKey string) (stored *Invoice, created bool, err error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)
	// ListBetween returns invoices issued in [from, to), oldest first.
	ListBetween(ctx context.Context, from, to time.Time) ([]*Invoice, error)
}
