package cashier

import "context"

// Repository defines the interface for cashier data storage.
type Repository interface {
	CreateCashier(ctx context.Context, c *Cashier) error
	// UpsertCashier creates the cashier or replaces the password hash of an existing one.
	UpsertCashier(ctx context.Context, c *Cashier) error
	GetCashierByUsername(ctx context.Context, username string) (*Cashier, error)
}
