package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// QRState is the lifecycle of one online payment attempt.
type QRState string

const (
	QRIdle    QRState = "IDLE"
	QRLoading QRState = "LOADING"
	QRSuccess QRState = "SUCCESS" // code shown, awaiting payment
	QRPaid    QRState = "PAID"
	QRFailed  QRState = "FAILED"
	QRError   QRState = "ERROR" // code could not be obtained
)

// validQRTransitions defines the allowed moves of an attempt. ERROR, PAID and
// FAILED are terminal; a retry starts a new attempt.
var validQRTransitions = map[QRState][]QRState{
	QRIdle:    {QRLoading},
	QRLoading: {QRSuccess, QRError},
	QRSuccess: {QRPaid, QRFailed},
	QRPaid:    {},
	QRFailed:  {},
	QRError:   {},
}

// CanTransition returns true if the attempt may move from current to next.
func CanTransition(current, next QRState) bool {
	allowed, ok := validQRTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

func (s QRState) Terminal() bool {
	return s == QRPaid || s == QRFailed || s == QRError
}

// Attempt is one request for a QR code and everything that happened to it.
type Attempt struct {
	ID             uuid.UUID       `json:"id"`
	BillID         uuid.UUID       `json:"billId"`
	InstanceID     uuid.UUID       `json:"instanceId"`
	Cashier        string          `json:"cashier"`
	Amount         decimal.Decimal `json:"amount"`
	State          QRState         `json:"state"`
	QRImage        string          `json:"qrImage,omitempty"`
	Reference      string          `json:"qrId,omitempty"`
	TransactionRef string          `json:"transactionId,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (a *Attempt) transition(next QRState, at time.Time) error {
	if !CanTransition(a.State, next) {
		return apperror.New(apperror.KindConflict, "payment attempt cannot move from %s to %s", a.State, next)
	}
	a.State = next
	a.UpdatedAt = at
	return nil
}

// ── Cash ──────────────────────────────────────────────────────────────────────

type ChangeOutcome string

const (
	ChangeExact        ChangeOutcome = "EXACT"
	ChangeDue          ChangeOutcome = "CHANGE"
	ChangeInsufficient ChangeOutcome = "INSUFFICIENT"
)

// ChangeResult is the outcome of tendering cash against a total. Change and
// Shortfall are never negative; at most one of them is non-zero.
type ChangeResult struct {
	Outcome   ChangeOutcome   `json:"outcome"`
	Total     decimal.Decimal `json:"totalAmount"`
	Tendered  decimal.Decimal `json:"amountGiven"`
	Change    decimal.Decimal `json:"change"`
	Shortfall decimal.Decimal `json:"shortfall"`
}
