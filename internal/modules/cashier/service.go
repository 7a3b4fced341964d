package cashier

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/rochak-pos/internal/config"
	"github.com/georgemunganga/rochak-pos/internal/platform/apperror"
)

// Service defines the interface for cashier-related business logic.
type Service interface {
	RegisterCashier(ctx context.Context, username, password, displayName string) (*Cashier, error)
	GetCashier(ctx context.Context, username string) (*Cashier, error)
	Seed(ctx context.Context, seeds []config.CashierSeed) error
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new cashier service.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) RegisterCashier(ctx context.Context, username, password, displayName string) (*Cashier, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.Validation("username is required")
	}
	if len(password) < 6 {
		return nil, apperror.Validation("password must be at least 6 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c := &Cashier{
		ID:           uuid.New(),
		Username:     username,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateCashier(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *service) GetCashier(ctx context.Context, username string) (*Cashier, error) {
	return s.repo.GetCashierByUsername(ctx, username)
}

// Seed provisions the configured accounts. Hashes are stored as given.
func (s *service) Seed(ctx context.Context, seeds []config.CashierSeed) error {
	for _, seed := range seeds {
		if _, err := bcrypt.Cost([]byte(seed.PasswordHash)); err != nil {
			return apperror.Validation("cashier %q: password hash is not bcrypt", seed.Username)
		}
		c := &Cashier{ID: uuid.New(), Username: seed.Username, PasswordHash: seed.PasswordHash}
		if err := s.repo.UpsertCashier(ctx, c); err != nil {
			return err
		}
		s.logger.Info("cashier provisioned", "username", seed.Username)
	}
	return nil
}
