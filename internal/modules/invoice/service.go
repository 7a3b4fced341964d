package invoice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
	"github.com/georgemunganga/rochak-pos/internal/modules/payment"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Bills is the part of the cart service checkout needs.
type Bills interface {
	Snapshot(ctx context.Context, cashier, sessionID string) (cart.Snapshot, error)
	Reset(ctx context.Context, sessionID string, sold cart.Snapshot) error
}

// Payments is the part of the payment service checkout needs.
type Payments interface {
	Settled(ctx context.Context, billID uuid.UUID) (*payment.Attempt, error)
	Clear(billID uuid.UUID)
}

// Service defines invoice operations.
type Service interface {
	// Checkout finalizes and stores the live bill, then starts a fresh one.
	Checkout(ctx context.Context, cashier, sessionID string, req CheckoutRequest) (*Invoice, error)
	// CompleteOnline checks out the bill an attempt was paid for.
	CompleteOnline(ctx context.Context, a payment.Attempt) (*Invoice, error)
	// SaveInvoice stores an invoice posted directly by a client. created is
	// false when idempotencyKey matched an earlier save.
	SaveInvoice(ctx context.Context, req SaveInvoiceRequest, idempotencyKey string) (inv *Invoice, created bool, err error)
	GetInvoice(ctx context.Context, number string) (*Invoice, error)
	Document(ctx context.Context, number string) ([]byte, error)
	DailySales(ctx context.Context, date string) (*SalesReport, error)
	ExportDailySales(ctx context.Context, date string) ([]byte, error)
}

type service struct {
	repo     Repository
	bills    Bills
	payments Payments
	renderer *Renderer
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
	inflight singleflight.Group
}

func NewService(repo Repository, bills Bills, payments Payments, renderer *Renderer, loc *time.Location, logger *slog.Logger) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:     repo,
		bills:    bills,
		payments: payments,
		renderer: renderer,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Checkout(ctx context.Context, cashier, sessionID string, req CheckoutRequest) (*Invoice, error) {
	snap, err := s.bills.Snapshot(ctx, cashier, sessionID)
	if err != nil {
		return nil, err
	}
	if len(snap.Lines) == 0 {
		return nil, apperror.New(apperror.KindIncompleteBill, "cannot finalize a bill with no items")
	}
	billID := uuid.MustParse(sessionID)

	// One save per bill instance: concurrent checkouts share the result.
	v, err, _ := s.inflight.Do(snap.InstanceID.String(), func() (interface{}, error) {
		record, err := s.paymentFor(ctx, billID, snap, req)
		if err != nil {
			return nil, err
		}
		inv, err := Finalize(snap, record, cashier, s.now())
		if err != nil {
			return nil, err
		}
		stored, created, err := s.repo.Create(ctx, inv, snap.InstanceID.String())
		if err != nil {
			return nil, err
		}
		if err := s.bills.Reset(ctx, sessionID, snap); err != nil {
			s.logger.Warn("bill reset after checkout failed", "bill_id", sessionID, "error", err)
		}
		s.payments.Clear(billID)
		if created {
			s.logger.Info("invoice issued",
				"invoice_number", stored.Number, "cashier", stored.Cashier,
				"method", stored.Payment.Method, "total", stored.Total.StringFixed(2))
		}
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Invoice), nil
}

func (s *service) paymentFor(ctx context.Context, billID uuid.UUID, snap cart.Snapshot, req CheckoutRequest) (PaymentRecord, error) {
	switch PaymentMethod(strings.ToUpper(string(req.Method))) {
	case MethodCash:
		if req.AmountGiven == nil {
			return PaymentRecord{}, apperror.Validation("amount given is required for cash payment")
		}
		return CashRecord(*req.AmountGiven), nil

	case MethodOnline:
		a, err := s.payments.Settled(ctx, billID)
		if errors.Is(err, apperror.ErrNotFound) {
			return PaymentRecord{}, apperror.New(apperror.KindUnsettledPayment, "no online payment has been made for this bill")
		}
		if err != nil {
			return PaymentRecord{}, err
		}
		if a.InstanceID != snap.InstanceID || !a.Amount.Equal(snap.Total()) {
			return PaymentRecord{}, apperror.New(apperror.KindUnsettledPayment,
				"bill changed after the payment code was issued; request a new code")
		}
		return OnlineRecord(a.TransactionRef, onlineStatus(a.State)), nil

	default:
		return PaymentRecord{}, apperror.Validation("payment method must be cash or online")
	}
}

func onlineStatus(s payment.QRState) OnlineStatus {
	switch s {
	case payment.QRPaid:
		return OnlinePaid
	case payment.QRFailed:
		return OnlineFailed
	case payment.QRError:
		return OnlineError
	default:
		return OnlinePending
	}
}

func (s *service) CompleteOnline(ctx context.Context, a payment.Attempt) (*Invoice, error) {
	return s.Checkout(ctx, a.Cashier, a.BillID.String(), CheckoutRequest{Method: MethodOnline})
}

func (s *service) SaveInvoice(ctx context.Context, req SaveInvoiceRequest, idempotencyKey string) (*Invoice, bool, error) {
	if len(req.Items) == 0 {
		return nil, false, apperror.New(apperror.KindIncompleteBill, "cannot save an invoice with no items")
	}

	// Rebuild the bill so merge and validation rules match the till.
	bill := cart.NewBill()
	for i, row := range req.Items {
		// Stored prices carry two decimals; round first so the total still adds up.
		price := row.Price.Round(2)
		c := cart.Candidate{Name: strings.TrimSpace(row.Name), UnitPrice: &price, ImageRef: row.ImageURL}
		if err := bill.AddLine(c, row.Quantity); err != nil {
			return nil, false, apperror.Validation("item %d: %s", i+1, apperror.Get(err).Message)
		}
	}
	snap := bill.Snapshot()
	if id, err := uuid.Parse(req.BillID); err == nil {
		snap.InstanceID = id
	}
	if !req.TotalAmount.IsZero() && !req.TotalAmount.Equal(snap.Total()) {
		s.logger.Warn("client total differs from recomputed total",
			"client_total", req.TotalAmount.StringFixed(2), "total", snap.Total().StringFixed(2))
	}

	var record PaymentRecord
	switch strings.ToLower(req.PaymentMethod) {
	case "cash":
		if req.AmountGiven == nil {
			return nil, false, apperror.Validation("amountGiven is required for cash payment")
		}
		record = CashRecord(*req.AmountGiven)
	case "online":
		record = OnlineRecord(strings.TrimSpace(req.TransactionID), OnlinePaid)
	default:
		return nil, false, apperror.Validation("paymentMethod must be cash or online")
	}

	cashier := req.Cashier
	if strings.TrimSpace(cashier) == "" {
		cashier = req.Seller
	}
	at := req.Date
	if at.IsZero() {
		at = s.now()
	}

	inv, err := Finalize(snap, record, cashier, at)
	if err != nil {
		return nil, false, err
	}
	if idempotencyKey == "" && req.BillID != "" {
		idempotencyKey = req.BillID
	}
	stored, created, err := s.repo.Create(ctx, inv, idempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("invoice saved", "invoice_number", stored.Number, "cashier", stored.Cashier,
			"method", stored.Payment.Method, "total", stored.Total.StringFixed(2))
	}
	return stored, created, nil
}

func (s *service) GetInvoice(ctx context.Context, number string) (*Invoice, error) {
	return s.repo.GetByNumber(ctx, number)
}

func (s *service) Document(ctx context.Context, number string) ([]byte, error) {
	inv, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(inv)
}

func (s *service) DailySales(ctx context.Context, date string) (*SalesReport, error) {
	from, err := s.day(date)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repo.ListBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return Aggregate(from.Format("2006-01-02"), invoices), nil
}

func (s *service) ExportDailySales(ctx context.Context, date string) ([]byte, error) {
	report, err := s.DailySales(ctx, date)
	if err != nil {
		return nil, err
	}
	return ExportXLSX(report)
}

// day returns local midnight of date (YYYY-MM-DD), or of today when empty.
func (s *service) day(date string) (time.Time, error) {
	if date == "" {
		n := s.now().In(s.loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc), nil
	}
	d, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return time.Time{}, apperror.Validation("date must be YYYY-MM-DD")
	}
	return d, nil
}
