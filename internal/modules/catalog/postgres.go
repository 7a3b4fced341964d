package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

const itemColumns = `id, name, unit_price, image_ref, is_active, created_at, updated_at`

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, item *CatalogItem) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO catalog_items (id, name, unit_price, image_ref, is_active)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING created_at, updated_at`,
		item.ID, item.Name, item.UnitPrice, item.ImageRef, item.IsActive,
	).Scan(&item.CreatedAt, &item.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperror.New(apperror.KindConflict, "catalog item %q already exists", item.Name)
	}
	return err
}

func scanItem(scan func(...interface{}) error) (*CatalogItem, error) {
	item := &CatalogItem{}
	var image sql.NullString
	err := scan(&item.ID, &item.Name, &item.UnitPrice, &image, &item.IsActive,
		&item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("catalog item")
	}
	if err != nil {
		return nil, err
	}
	item.ImageRef = image.String
	return item, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*CatalogItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id)
	return scanItem(row.Scan)
}

// GetByName matches the exact, case-sensitive name.
func (r *postgresRepo) GetByName(ctx context.Context, name string) (*CatalogItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM catalog_items WHERE name = $1 AND is_active = TRUE`, name)
	return scanItem(row.Scan)
}

func (r *postgresRepo) List(ctx context.Context) ([]*CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM catalog_items WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*CatalogItem{}
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
