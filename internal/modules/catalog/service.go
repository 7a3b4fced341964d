package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Service defines catalog business logic.
type Service interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*CatalogItem, error)
	GetItem(ctx context.Context, id string) (*CatalogItem, error)
	FindByName(ctx context.Context, name string) (*CatalogItem, error)
	ListItems(ctx context.Context) ([]*CatalogItem, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*CatalogItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperror.Validation("price must not be negative")
	}
	item := &CatalogItem{
		ID:        uuid.New(),
		Name:      name,
		UnitPrice: req.UnitPrice.Round(2),
		ImageRef:  strings.TrimSpace(req.ImageRef),
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*CatalogItem, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid item id %q", id)
	}
	return s.repo.GetByID(ctx, uid)
}

func (s *service) FindByName(ctx context.Context, name string) (*CatalogItem, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *service) ListItems(ctx context.Context) ([]*CatalogItem, error) {
	return s.repo.List(ctx)
}
