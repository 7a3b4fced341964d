package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for catalog item storage.
type Repository interface {
	Create(ctx context.Context, item *CatalogItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error)
	GetByName(ctx context.Context, name string) (*CatalogItem, error)
	List(ctx context.Context) ([]*CatalogItem, error)
}
