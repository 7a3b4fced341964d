package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/georgemunganga/rochak-pos/internal/modules/cashier"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

var errInvalidCredentials = apperror.New(apperror.KindUnauthorized, "invalid credentials")

// Limits login attempts per username: a burst of 5, then one every 12 seconds.
// A limiter idle for limiterTTL has refilled its burst, so it is dropped.
const (
	loginRate  = rate.Limit(1.0 / 12)
	loginBurst = 5
	limiterTTL = 15 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type service struct {
	cashierRepo cashier.Repository
	jwtKey      []byte
	expiry      time.Duration
	now         func() time.Time

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
}

// NewService creates a new auth service.
func NewService(cashierRepo cashier.Repository, secret string, expiry time.Duration) Service {
	return &service{
		cashierRepo: cashierRepo,
		jwtKey:      []byte(secret),
		expiry:      expiry,
		now:         time.Now,
		limiters:    make(map[string]*limiterEntry),
	}
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	if !s.limiter(username).Allow() {
		return "", apperror.New(apperror.KindRateLimited, "too many login attempts, try again later")
	}

	c, err := s.cashierRepo.GetCashierByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", errInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return "", errInvalidCredentials
	}

	expirationTime := time.Now().Add(s.expiry)
	claims := &jwt.StandardClaims{
		Subject:   c.Username,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expirationTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *service) Authenticate(tokenString string) (string, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", apperror.New(apperror.KindUnauthorized, "invalid or expired token")
	}
	return claims.Subject, nil
}

func (s *service) limiter(username string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= limiterTTL {
		s.sweep(now)
	}

	e, ok := s.limiters[username]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(loginRate, loginBurst)}
		s.limiters[username] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep removes limiters unused for limiterTTL. Callers hold s.mu.
func (s *service) sweep(now time.Time) {
	cutoff := now.Add(-limiterTTL)
	for name, e := range s.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(s.limiters, name)
		}
	}
	s.lastSweep = now
}
