// Package fonepay bridges the payment portal bot to the till. All knowledge of
// the portal's confirmation text lives here.
package fonepay

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Confirmation is a payment the portal reported as received.
type Confirmation struct {
	Amount  decimal.Decimal `json:"amount"`
	TraceID string          `json:"traceId"`
}

// The portal shows a banner like "Received NPR.150.00 from ... traceId 123456".
var bannerPattern = regexp.MustCompile(`(?i)Received NPR\.?\s*([\d.]+).*traceId\s*(\d+)`)

// ParseConfirmation extracts the amount and trace id from the portal banner.
func ParseConfirmation(text string) (Confirmation, error) {
	m := bannerPattern.FindStringSubmatch(text)
	if m == nil {
		return Confirmation{}, apperror.Validation("unrecognised confirmation text")
	}
	amount, err := decimal.NewFromString(strings.TrimRight(m[1], "."))
	if err != nil || !amount.IsPositive() {
		return Confirmation{}, apperror.Validation("invalid amount %q in confirmation text", m[1])
	}
	return Confirmation{Amount: amount, TraceID: m[2]}, nil
}
