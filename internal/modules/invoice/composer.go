package invoice

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
	"github.com/georgemunganga/rochak-pos/internal/modules/payment"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Finalize turns a bill snapshot and its payment into an invoice. It has no
// side effects. Cash change is always recomputed from the bill total.
func Finalize(bill cart.Snapshot, pay PaymentRecord, cashier string, at time.Time) (*Invoice, error) {
	if len(bill.Lines) == 0 {
		return nil, apperror.New(apperror.KindIncompleteBill, "cannot finalize a bill with no items")
	}
	cashier = strings.TrimSpace(cashier)
	if cashier == "" {
		return nil, apperror.Validation("cashier is required")
	}

	total := bill.Total()
	record, err := settle(total, pay)
	if err != nil {
		return nil, err
	}

	lines := make([]cart.LineItem, len(bill.Lines))
	copy(lines, bill.Lines)

	return &Invoice{
		ID:       uuid.New(),
		BillID:   bill.InstanceID,
		Cashier:  cashier,
		IssuedAt: at,
		Lines:    lines,
		Total:    total,
		Payment:  record,
	}, nil
}

func settle(total decimal.Decimal, pay PaymentRecord) (PaymentRecord, error) {
	switch pay.Method {
	case MethodCash:
		if pay.Cash == nil {
			return PaymentRecord{}, apperror.Validation("amount given is required for cash payment")
		}
		res, err := payment.ComputeChange(total, pay.Cash.AmountTendered)
		if err != nil {
			return PaymentRecord{}, err
		}
		if res.Outcome == payment.ChangeInsufficient {
			return PaymentRecord{}, apperror.New(apperror.KindUnsettledPayment,
				"amount given %s is less than the total %s", res.Tendered.StringFixed(2), total.StringFixed(2))
		}
		return PaymentRecord{Method: MethodCash, Cash: &CashPayment{
			AmountTendered: res.Tendered,
			Change:         res.Tendered.Sub(total),
		}}, nil

	case MethodOnline:
		if pay.Online == nil {
			return PaymentRecord{}, apperror.Validation("online payment details are required")
		}
		if pay.Online.Status != OnlinePaid {
			return PaymentRecord{}, apperror.New(apperror.KindUnsettledPayment,
				"online payment is %s, not PAID", pay.Online.Status)
		}
		if pay.Online.TransactionRef == "" {
			return PaymentRecord{}, apperror.Validation("transaction id is required for online payment")
		}
		online := *pay.Online
		return PaymentRecord{Method: MethodOnline, Online: &online}, nil

	default:
		return PaymentRecord{}, apperror.Validation("unknown payment method %q", pay.Method)
	}
}
