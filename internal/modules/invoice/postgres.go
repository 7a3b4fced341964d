package invoice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

const invoiceColumns = `id, invoice_number, bill_id, cashier, issued_at, total_amount,
	payment_method, amount_tendered, change_amount, transaction_ref, payment_status`

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, inv *Invoice, idempotencyKey string) (*Invoice, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var tendered, change decimal.NullDecimal
	var ref, status sql.NullString
	if c := inv.Payment.Cash; c != nil {
		tendered = decimal.NewNullDecimal(c.AmountTendered)
		change = decimal.NewNullDecimal(c.Change)
	}
	if o := inv.Payment.Online; o != nil {
		ref = sql.NullString{String: o.TransactionRef, Valid: true}
		status = sql.NullString{String: string(o.Status), Valid: true}
	}

	var number string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO invoices
		  (id, invoice_number, idempotency_key, bill_id, cashier, issued_at, total_amount,
		   payment_method, amount_tendered, change_amount, transaction_ref, payment_status)
		VALUES ($1, 'INV-' || lpad(nextval('invoice_number_seq')::text, 5, '0'), NULLIF($2, ''),
		        $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING invoice_number`,
		inv.ID, idempotencyKey, inv.BillID, inv.Cashier, inv.IssuedAt, inv.Total,
		string(inv.Payment.Method), tendered, change, ref, status,
	).Scan(&number)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "invoices_idempotency_key_key" {
		tx.Rollback()
		existing, getErr := r.GetByIdempotencyKey(ctx, idempotencyKey)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO invoice_lines (invoice_id, position, name, unit_price, quantity, image_ref)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`)
	if err != nil {
		return nil, false, err
	}
	defer stmt.Close()
	for i, l := range inv.Lines {
		if _, err := stmt.ExecContext(ctx, inv.ID, i, l.Name, l.UnitPrice, l.Quantity, l.ImageRef); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	stored := *inv
	stored.Number = number
	return &stored, true, nil
}

func (r *postgresRepo) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = $1`, number)
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE idempotency_key = $1`, key)
}

func (r *postgresRepo) ListBetween(ctx context.Context, from, to time.Time) ([]*Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+invoiceColumns+`
		FROM invoices WHERE issued_at >= $1 AND issued_at < $2
		ORDER BY issued_at, invoice_number`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []*Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *postgresRepo) getOne(ctx context.Context, query string, arg interface{}) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, arg).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("invoice")
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, []*Invoice{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

func scanInvoice(scan func(...interface{}) error) (*Invoice, error) {
	inv := &Invoice{}
	var method string
	var tendered, change decimal.NullDecimal
	var ref, status sql.NullString
	err := scan(&inv.ID, &inv.Number, &inv.BillID, &inv.Cashier, &inv.IssuedAt, &inv.Total,
		&method, &tendered, &change, &ref, &status)
	if err != nil {
		return nil, err
	}
	inv.Payment.Method = PaymentMethod(method)
	switch inv.Payment.Method {
	case MethodCash:
		inv.Payment.Cash = &CashPayment{AmountTendered: tendered.Decimal, Change: change.Decimal}
	case MethodOnline:
		inv.Payment.Online = &OnlinePayment{TransactionRef: ref.String, Status: OnlineStatus(status.String)}
	}
	return inv, nil
}

// loadLines fills the lines of all invoices in one query.
func (r *postgresRepo) loadLines(ctx context.Context, invoices []*Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Invoice, len(invoices))
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
		inv.Lines = []cart.LineItem{}
		ids = append(ids, inv.ID.String())
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT invoice_id, name, unit_price, quantity, image_ref
		FROM invoice_lines WHERE invoice_id = ANY($1::uuid[])
		ORDER BY invoice_id, position`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var l cart.LineItem
		var image sql.NullString
		if err := rows.Scan(&id, &l.Name, &l.UnitPrice, &l.Quantity, &image); err != nil {
			return err
		}
		l.ImageRef = image.String
		if inv, ok := byID[id]; ok {
			inv.Lines = append(inv.Lines, l)
		}
	}
	return rows.Err()
}
