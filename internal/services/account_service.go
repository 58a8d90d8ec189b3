package services

import (
	"context"
	"log/slog"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryLimit caps the entries returned by History
const HistoryLimit = 100

// Compile-time check to ensure AccountServiceImpl implements AccountService
var _ AccountService = (*AccountServiceImpl)(nil)

// AccountServiceImpl serves account and ledger views
type AccountServiceImpl struct {
	accounts repositories.AccountRepository
	ledger   repositories.TransactionRepository
	adminID  primitive.ObjectID
}

// NewAccountService creates a new AccountServiceImpl
func NewAccountService(accounts repositories.AccountRepository, ledger repositories.TransactionRepository, adminID primitive.ObjectID) *AccountServiceImpl {
	return &AccountServiceImpl{accounts: accounts, ledger: ledger, adminID: adminID}
}

// Profile returns the caller's own account
func (s *AccountServiceImpl) Profile(ctx context.Context, caller models.Identity) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, caller.AccountID)
	if err != nil {
		return nil, storeError(err, "account")
	}
	return account, nil
}

// Balance returns the caller's balance and accrued income
func (s *AccountServiceImpl) Balance(ctx context.Context, caller models.Identity) (*models.BalanceView, error) {
	account, err := s.Profile(ctx, caller)
	if err != nil {
		return nil, err
	}
	return &models.BalanceView{Balance: account.Balance, Income: account.IncomeAccrued}, nil
}

// History returns the newest ledger entries involving the caller
func (s *AccountServiceImpl) History(ctx context.Context, caller models.Identity) ([]*models.Transaction, error) {
	entries, err := s.ledger.FindByAccount(ctx, caller.AccountID, HistoryLimit)
	if err != nil {
		return nil, storeError(err, "transactions")
	}
	return entries, nil
}

// ListAccounts returns all users and agents
func (s *AccountServiceImpl) ListAccounts(ctx context.Context, caller models.Identity) ([]*models.Account, error) {
	if err := requireRole(caller, "list accounts", models.RoleAdmin); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.List(ctx, models.AccountFilter{Roles: []models.Role{models.RoleUser, models.RoleAgent}})
	if err != nil {
		return nil, storeError(err, "accounts")
	}
	return accounts, nil
}

// AllTransactions returns one page of the whole ledger, newest first
func (s *AccountServiceImpl) AllTransactions(ctx context.Context, caller models.Identity, page, limit int) ([]*models.Transaction, error) {
	if err := requireRole(caller, "view all transactions", models.RoleAdmin); err != nil {
		return nil, err
	}
	if page < 1 || limit < 1 || limit > 500 {
		return nil, apperrors.Validation("page must be >= 1 and limit between 1 and 500")
	}
	entries, err := s.ledger.FindAll(ctx, page, limit)
	if err != nil {
		return nil, storeError(err, "transactions")
	}
	return entries, nil
}

// SetBlocked blocks or unblocks a user or agent. The designated admin account cannot be blocked.
func (s *AccountServiceImpl) SetBlocked(ctx context.Context, caller models.Identity, accountID primitive.ObjectID, blocked bool) error {
	if err := requireRole(caller, "block accounts", models.RoleAdmin); err != nil {
		return err
	}
	if accountID == s.adminID || accountID == caller.AccountID {
		return apperrors.Validation("admin accounts cannot be blocked")
	}
	if err := s.accounts.SetBlocked(ctx, accountID, blocked); err != nil {
		return storeError(err, "account")
	}
	slog.Info("Account block flag changed", "account", accountID.Hex(), "blocked", blocked, "admin", caller.AccountID.Hex())
	return nil
}
