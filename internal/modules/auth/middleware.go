package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

type ctxKey struct{}

// WithCashier returns a copy of ctx carrying the cashier username.
func WithCashier(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// CashierFromContext returns the signed-in cashier, or "" if there is none.
func CashierFromContext(ctx context.Context) string {
	username, _ := ctx.Value(ctxKey{}).(string)
	return username
}

// CashierFromRequest is CashierFromContext for handlers that take a request.
func CashierFromRequest(r *http.Request) string {
	return CashierFromContext(r.Context())
}

// RequireCashier rejects requests without a valid bearer token.
func RequireCashier(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond(w, http.StatusUnauthorized, apperror.New(apperror.KindUnauthorized, "missing bearer token"))
				return
			}
			username, err := svc.Authenticate(token)
			if err != nil {
				appErr := apperror.Get(err)
				respond(w, appErr.Code, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCashier(r.Context(), username)))
		})
	}
}
