package fonepay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

func TestParseConfirmation(t *testing.T) {
	tests := []struct {
		text    string
		amount  string
		traceID string
	}{
		{"Received NPR.150.00 from 98XXXXXX12 traceId 4471023", "150", "4471023"},
		{"received npr.20 via QR, TRACEID: 88", "", ""},
		{"Received NPR 75.5 successfully. traceId 9001", "75.5", "9001"},
		{"Payment Received NPR.1200. Remarks: bill traceId  31337", "1200", "31337"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c, err := ParseConfirmation(tt.text)
			if tt.amount == "" {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, c.Amount.String())
			assert.Equal(t, tt.traceID, c.TraceID)
		})
	}
}

func TestParseConfirmationRejects(t *testing.T) {
	for _, text := range []string{
		"",
		"Payment pending",
		"Received NPR.0 traceId 12",
		"Received NPR.. traceId 12",
	} {
		_, err := ParseConfirmation(text)
		assert.ErrorIs(t, err, apperror.ErrValidation, text)
	}
}
