package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/config"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
)

// Compile-time check to ensure authService implements AuthService
var _ AuthService = (*authService)(nil)

type authService struct {
	accounts repositories.AccountRepository
	pins     PINHasher
	tokens   TokenIssuer
	notifier Notifier
	opening  config.LedgerConfig
	now      func() time.Time
}

// NewAuthService creates a new AuthService implementation
func NewAuthService(
	accounts repositories.AccountRepository,
	pins PINHasher,
	tokens TokenIssuer,
	notifier Notifier,
	ledger config.LedgerConfig,
) AuthService {
	return &authService{
		accounts: accounts,
		pins:     pins,
		tokens:   tokens,
		notifier: notifier,
		opening:  ledger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a User or a pending Agent. Admin accounts are provisioned, never registered.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, apperrors.Validation("invalid role")
	}

	account := &models.Account{
		Name:         req.Name,
		Role:         role,
		MobileNumber: req.Mobile,
		NationalID:   req.NationalID,
		Email:        req.Email,
		CreatedAt:    s.now(),
	}
	switch role {
	case models.RoleUser:
		account.Balance = s.opening.UserOpeningBalance
		account.Approved = true
	case models.RoleAgent:
		account.Balance = s.opening.AgentOpeningBalance
		account.Approved = false
	case models.RoleAdmin:
		return nil, apperrors.Forbidden("admin accounts cannot be registered")
	}

	exists, err := s.accounts.ExistsByIdentity(ctx, req.Email, req.Mobile, req.NationalID)
	if err != nil {
		return nil, storeError(err, "account")
	}
	if exists {
		return nil, apperrors.Conflict("user already exists")
	}

	hash, err := s.pins.Hash(req.PIN)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to hash PIN")
	}
	account.PINHash = hash

	// The unique indexes catch a registration racing this one
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, storeError(err, "account")
	}

	slog.Info("Account registered", "account", account.ID.Hex(), "role", account.Role)
	s.notifier.AccountRegistered(ctx, account)
	return account, nil
}

// Login verifies email and PIN and issues a token. Blocked accounts are refused.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.KindOf(storeError(err, "account")) == apperrors.KindNotFound {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, storeError(err, "account")
	}
	if err := verifyPIN(s.pins, account.PINHash, req.PIN); err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnauthorized {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if account.Blocked {
		return nil, apperrors.Forbidden("account is blocked")
	}

	token, err := s.tokens.Generate(account.ID.Hex(), string(account.Role), account.Email)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to issue token")
	}

	if req.Device != "" {
		if err := s.accounts.RecordLogin(ctx, account.ID, req.Device); err != nil {
			slog.Warn("Failed to record login device", "account", account.ID.Hex(), "error", err)
		} else {
			account.LastLoggedInDevice = req.Device
		}
	}

	slog.Info("Login successful", "account", account.ID.Hex(), "role", account.Role)
	return &models.LoginResponse{Token: token, Account: account}, nil
}
