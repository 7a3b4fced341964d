package cashier

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL cashier repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateCashier(ctx context.Context, c *Cashier) error {
	query := `
		INSERT INTO cashiers (id, username, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.Username, c.DisplayName, c.PasswordHash).
		Scan(&c.CreatedAt, &c.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperror.New(apperror.KindConflict, "cashier %q already exists", c.Username)
	}
	return err
}

func (r *postgresRepository) UpsertCashier(ctx context.Context, c *Cashier) error {
	query := `
		INSERT INTO cashiers (id, username, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, c.ID, c.Username, c.DisplayName, c.PasswordHash).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *postgresRepository) GetCashierByUsername(ctx context.Context, username string) (*Cashier, error) {
	c := &Cashier{}
	query := `
		SELECT id, username, display_name, password_hash, created_at, updated_at
		FROM cashiers
		WHERE username = $1
	`
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&c.ID,
		&c.Username,
		&c.DisplayName,
		&c.PasswordHash,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("cashier")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
