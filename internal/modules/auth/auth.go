package auth

import "context"

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	// Authenticate validates a token and returns the cashier username it was issued to.
	Authenticate(token string) (string, error)
}
