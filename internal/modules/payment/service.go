package payment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Bills is the part of the cart service payment reads totals from.
type Bills interface {
	Snapshot(ctx context.Context, cashier, sessionID string) (cart.Snapshot, error)
}

// Service defines payment calculator operations.
type Service interface {
	ComputeChange(ctx context.Context, cashier, billID string, tendered decimal.Decimal) (*ChangeResult, error)
	RequestCode(ctx context.Context, cashier, billID string) (*Attempt, error)
	Current(ctx context.Context, cashier, billID string) (*Attempt, error)
	Cancel(ctx context.Context, cashier, billID string) (*Attempt, error)
	// Confirm settles the single awaiting attempt for amount, as reported by
	// the payment portal rather than by polling. seller narrows the match
	// when set.
	Confirm(ctx context.Context, amount decimal.Decimal, traceID, seller string) (*Attempt, error)
	// Settled returns the current attempt for a bill, or NOT_FOUND.
	Settled(ctx context.Context, billID uuid.UUID) (*Attempt, error)
	// Clear forgets the bill's attempt once the sale is recorded.
	Clear(billID uuid.UUID)
	// OnPaid registers fn to run, outside any lock, whenever an attempt reaches PAID.
	OnPaid(fn func(a Attempt))
}

type service struct {
	bills   Bills
	gateway Gateway
	poller  *Poller
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	attempts map[uuid.UUID]*Attempt // current attempt per bill
	onPaid   func(a Attempt)
}

func NewService(bills Bills, gateway Gateway, poller *Poller, logger *slog.Logger) Service {
	return &service{
		bills:    bills,
		gateway:  gateway,
		poller:   poller,
		logger:   logger,
		now:      time.Now,
		attempts: make(map[uuid.UUID]*Attempt),
	}
}

func (s *service) OnPaid(fn func(a Attempt)) {
	s.mu.Lock()
	s.onPaid = fn
	s.mu.Unlock()
}

func (s *service) ComputeChange(ctx context.Context, cashier, billID string, tendered decimal.Decimal) (*ChangeResult, error) {
	snap, err := s.bills.Snapshot(ctx, cashier, billID)
	if err != nil {
		return nil, err
	}
	res, err := ComputeChange(snap.Total(), tendered)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *service) RequestCode(ctx context.Context, cashier, billID string) (*Attempt, error) {
	snap, err := s.bills.Snapshot(ctx, cashier, billID)
	if err != nil {
		return nil, err
	}
	if len(snap.Lines) == 0 {
		return nil, apperror.New(apperror.KindIncompleteBill, "cannot request a payment code for an empty bill")
	}
	amount := snap.Total()
	if !amount.IsPositive() {
		return nil, apperror.Validation("bill total must be greater than zero")
	}
	bid := uuid.MustParse(billID)

	now := s.now()
	a := &Attempt{
		ID:         uuid.New(),
		BillID:     bid,
		InstanceID: snap.InstanceID,
		Cashier:    cashier,
		Amount:     amount,
		State:      QRIdle,
		CreatedAt:  now,
	}
	if err := a.transition(QRLoading, now); err != nil {
		return nil, err
	}

	s.mu.Lock()
	// A paid attempt only blocks the sale it paid for; a cleared bill starts a new one.
	if cur, ok := s.attempts[bid]; ok && cur.State == QRPaid && cur.InstanceID == snap.InstanceID {
		s.mu.Unlock()
		return nil, apperror.New(apperror.KindConflict, "bill is already paid")
	}
	s.poller.Stop(bid)
	s.attempts[bid] = a
	s.mu.Unlock()

	code, gwErr := s.gateway.RequestCode(ctx, amount)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempts[bid] != a {
		return nil, apperror.New(apperror.KindConflict, "payment attempt was replaced")
	}
	if gwErr != nil {
		a.Error = gwErr.Error()
		_ = a.transition(QRError, s.now())
		s.logger.Warn("qr code request failed", "bill_id", bid, "attempt_id", a.ID, "error", gwErr)
		return nil, gwErr
	}

	a.QRImage = code.Image
	a.Reference = code.Reference
	_ = a.transition(QRSuccess, s.now())

	attemptID, ref := a.ID, a.Reference
	s.poller.Start(bid, func(ctx context.Context) bool {
		return s.pollOnce(ctx, bid, attemptID, ref)
	})

	out := *a
	return &out, nil
}

// pollOnce checks the gateway once and reports whether polling should stop.
func (s *service) pollOnce(ctx context.Context, billID, attemptID uuid.UUID, ref string) bool {
	if !s.awaiting(billID, attemptID) {
		return true
	}

	raw, err := s.gateway.Status(ctx, ref)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		s.logger.Warn("payment status check failed", "bill_id", billID, "qr_id", ref, "error", err)
		return false
	}

	outcome := NormaliseStatus(raw)
	if outcome == OutcomePending {
		return false
	}

	s.mu.Lock()
	a, ok := s.attempts[billID]
	if !ok || a.ID != attemptID || a.State != QRSuccess {
		s.mu.Unlock()
		return true
	}
	if outcome == OutcomeFailed {
		a.Error = "payment " + raw
		_ = a.transition(QRFailed, s.now())
		s.mu.Unlock()
		s.logger.Info("qr payment failed", "bill_id", billID, "qr_id", ref, "status", raw)
		return true
	}
	a.TransactionRef = ref
	_ = a.transition(QRPaid, s.now())
	paid, hook := *a, s.onPaid
	s.mu.Unlock()

	s.logger.Info("qr payment received", "bill_id", billID, "qr_id", ref, "amount", paid.Amount)
	if hook != nil {
		hook(paid)
	}
	return true
}

func (s *service) awaiting(billID, attemptID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[billID]
	return ok && a.ID == attemptID && a.State == QRSuccess
}

func (s *service) Current(ctx context.Context, cashier, billID string) (*Attempt, error) {
	bid, err := s.owned(ctx, cashier, billID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[bid]; ok {
		out := *a
		return &out, nil
	}
	return &Attempt{BillID: bid, Cashier: cashier, State: QRIdle}, nil
}

// Cancel abandons the bill's attempt and stops its polling. A PAID attempt
// cannot be cancelled.
func (s *service) Cancel(ctx context.Context, cashier, billID string) (*Attempt, error) {
	bid, err := s.owned(ctx, cashier, billID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[bid]
	if !ok {
		return &Attempt{BillID: bid, Cashier: cashier, State: QRIdle}, nil
	}
	switch a.State {
	case QRPaid:
		return nil, apperror.New(apperror.KindConflict, "payment already received; it cannot be cancelled")
	case QRLoading:
		a.Error = "cancelled"
		_ = a.transition(QRError, s.now())
	case QRSuccess:
		a.Error = "cancelled"
		_ = a.transition(QRFailed, s.now())
	}
	s.poller.Stop(bid)
	delete(s.attempts, bid)
	out := *a
	return &out, nil
}

func (s *service) Confirm(ctx context.Context, amount decimal.Decimal, traceID, seller string) (*Attempt, error) {
	if traceID == "" {
		return nil, apperror.Validation("trace id is required")
	}

	s.mu.Lock()
	var match *Attempt
	for _, a := range s.attempts {
		if a.State != QRSuccess || !a.Amount.Equal(amount) {
			continue
		}
		if seller != "" && a.Cashier != seller {
			continue
		}
		if match != nil {
			s.mu.Unlock()
			return nil, apperror.New(apperror.KindConflict,
				"more than one bill is awaiting %s; confirm at the till", amount.StringFixed(2))
		}
		match = a
	}
	if match == nil {
		s.mu.Unlock()
		return nil, apperror.New(apperror.KindNotFound, "no bill is awaiting a payment of %s", amount.StringFixed(2))
	}
	match.TransactionRef = traceID
	_ = match.transition(QRPaid, s.now())
	s.poller.Stop(match.BillID)
	paid, hook := *match, s.onPaid
	s.mu.Unlock()

	s.logger.Info("qr payment confirmed by portal", "bill_id", paid.BillID, "trace_id", traceID, "amount", amount)
	if hook != nil {
		hook(paid)
	}
	return &paid, nil
}

func (s *service) Settled(ctx context.Context, billID uuid.UUID) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[billID]
	if !ok {
		return nil, apperror.NotFound("payment attempt")
	}
	out := *a
	return &out, nil
}

func (s *service) Clear(billID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.poller.Stop(billID)
	delete(s.attempts, billID)
}

// owned checks the bill exists and belongs to cashier.
func (s *service) owned(ctx context.Context, cashier, billID string) (uuid.UUID, error) {
	if _, err := s.bills.Snapshot(ctx, cashier, billID); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(billID), nil
}
