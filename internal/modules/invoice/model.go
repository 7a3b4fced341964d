package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
)

// PaymentMethod is how a bill was settled.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodOnline PaymentMethod = "ONLINE"
)

// OnlineStatus is the settlement state of an online payment.
type OnlineStatus string

const (
	OnlinePending OnlineStatus = "PENDING"
	OnlinePaid    OnlineStatus = "PAID"
	OnlineFailed  OnlineStatus = "FAILED"
	OnlineError   OnlineStatus = "ERROR"
)

type CashPayment struct {
	AmountTendered decimal.Decimal `json:"amountGiven"`
	// Change is tendered minus total. A negative value means the cash was
	// short; it is never clamped.
	Change decimal.Decimal `json:"exchange"`
}

type OnlinePayment struct {
	TransactionRef string       `json:"transactionId"`
	Status         OnlineStatus `json:"status"`
}

// PaymentRecord holds exactly one of Cash or Online, matching Method.
type PaymentRecord struct {
	Method PaymentMethod  `json:"method"`
	Cash   *CashPayment   `json:"cash,omitempty"`
	Online *OnlinePayment `json:"online,omitempty"`
}

func CashRecord(tendered decimal.Decimal) PaymentRecord {
	return PaymentRecord{Method: MethodCash, Cash: &CashPayment{AmountTendered: tendered}}
}

func OnlineRecord(transactionRef string, status OnlineStatus) PaymentRecord {
	return PaymentRecord{Method: MethodOnline, Online: &OnlinePayment{TransactionRef: transactionRef, Status: status}}
}

// Invoice is the immutable record of a completed sale. Number is assigned
// when the invoice is stored.
type Invoice struct {
	ID       uuid.UUID       `json:"id"`
	Number   string          `json:"invoiceNumber"`
	BillID   uuid.UUID       `json:"billId"`
	Cashier  string          `json:"cashier"`
	IssuedAt time.Time       `json:"date"`
	Lines    []cart.LineItem `json:"items"`
	Total    decimal.Decimal `json:"totalAmount"`
	Payment  PaymentRecord   `json:"payment"`
}

// SaveInvoiceRequest is the invoice payload posted by the till UI.
type SaveInvoiceRequest struct {
	Seller        string           `json:"seller"`
	Date          time.Time        `json:"date"`
	Items         []SaveInvoiceRow `json:"items"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
	PaymentMethod string           `json:"paymentMethod"`
	TransactionID string           `json:"transactionId"`
	AmountGiven   *decimal.Decimal `json:"amountGiven"`
	Exchange      *decimal.Decimal `json:"exchange"`
	Cashier       string           `json:"cashier"`
	BillID        string           `json:"billId"`
}

type SaveInvoiceRow struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
	ImageURL string          `json:"imageUrl"`
}

// CheckoutRequest settles a live bill.
type CheckoutRequest struct {
	Method      PaymentMethod    `json:"paymentMethod"`
	AmountGiven *decimal.Decimal `json:"amountGiven"`
}

// ── Sales report ──────────────────────────────────────────────────────────────

type SalesReport struct {
	Date            string           `json:"date"`
	Transactions    []*Invoice       `json:"transactions"`
	AggregatedItems []AggregatedItem `json:"aggregatedItems"`
	Summary         SalesSummary     `json:"summary"`
}

type AggregatedItem struct {
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Transactions int             `json:"transactions"`
	Total        decimal.Decimal `json:"total"`
}

type SalesSummary struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalItems        int             `json:"totalItems"`
	TotalTransactions int             `json:"totalTransactions"`
	CashRevenue       decimal.Decimal `json:"cashRevenue"`
	OnlineRevenue     decimal.Decimal `json:"onlineRevenue"`
}
