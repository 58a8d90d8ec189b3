package services

import (
	"context"
	"errors"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"github.com/ArowuTest/mcash-backend/internal/utils"
)

// storeError classifies a repository error; what names the document for the message
func storeError(err error, what string) error {
	var appErr *apperrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NotFound("%s not found", what)
	case errors.Is(err, repositories.ErrInsufficientBalance):
		return apperrors.InsufficientFunds("insufficient funds")
	case errors.Is(err, repositories.ErrDuplicateKey):
		return apperrors.Conflict("%s already exists", what)
	case errors.Is(err, repositories.ErrConflict):
		return apperrors.Conflict("%s was already processed", what)
	case errors.Is(err, repositories.ErrInvalidAmount):
		return apperrors.Validation("invalid amount for %s", what)
	default:
		return apperrors.Internal(err, "failed to access %s", what)
	}
}

// requireRole rejects callers whose verified role is not one of roles
func requireRole(caller models.Identity, action string, roles ...models.Role) error {
	for _, role := range roles {
		if caller.Role == role {
			return nil
		}
	}
	return apperrors.Forbidden("only %s can %s", roleNames(roles), action)
}

func roleNames(roles []models.Role) string {
	var names string
	for i, role := range roles {
		if i > 0 {
			names += " or "
		}
		switch role {
		case models.RoleUser:
			names += "users"
		case models.RoleAgent:
			names += "agents"
		case models.RoleAdmin:
			names += "admins"
		}
	}
	return names
}

// verifyPIN maps a mismatch to Unauthorized
func verifyPIN(pins PINHasher, hash, pin string) error {
	err := pins.Compare(hash, pin)
	if errors.Is(err, utils.ErrPINMismatch) {
		return apperrors.Unauthorized("invalid PIN")
	}
	if err != nil {
		return apperrors.Internal(err, "failed to verify PIN")
	}
	return nil
}

// loadCaller resolves the caller's account. A token outlives role changes and
// blocks, so both are checked against the stored account.
func loadCaller(ctx context.Context, accounts repositories.AccountRepository, caller models.Identity) (*models.Account, error) {
	account, err := accounts.FindByID(ctx, caller.AccountID)
	if err != nil {
		return nil, storeError(err, "account")
	}
	if account.Role != caller.Role {
		return nil, apperrors.Forbidden("account role has changed")
	}
	if account.Blocked {
		return nil, apperrors.Forbidden("account is blocked")
	}
	return account, nil
}
