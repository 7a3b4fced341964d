package cashier

import (
	"time"

	"github.com/google/uuid"
)

// Cashier is a till operator. Their username is printed on every invoice they issue.
type Cashier struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
