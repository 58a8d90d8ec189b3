package services

import (
	"context"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransferService moves money between accounts and records it in the ledger
type TransferService interface {
	// SendMoney transfers from the calling User to another User, paying the flat fee to Admin
	SendMoney(ctx context.Context, caller models.Identity, req *models.SendMoneyRequest) (*models.Transaction, error)

	// CashIn moves balance from the calling Agent to a User
	CashIn(ctx context.Context, caller models.Identity, req *models.CashInRequest) (*models.Transaction, error)

	// CashOut moves balance from the calling User to an approved Agent, splitting the fee
	CashOut(ctx context.Context, caller models.Identity, req *models.CashOutRequest) (*models.Transaction, error)
}

// RechargeService handles agent balance recharge requests
type RechargeService interface {
	Request(ctx context.Context, caller models.Identity, amount int64) (*models.RechargeRequest, error)
	Decide(ctx context.Context, caller models.Identity, requestID string, approve bool) (*models.RechargeRequest, error)
	ListPending(ctx context.Context, caller models.Identity) ([]*models.RechargeRequest, error)
	ListMine(ctx context.Context, caller models.Identity) ([]*models.RechargeRequest, error)
}

// AgentApprovalService handles onboarding decisions for new agents
type AgentApprovalService interface {
	// Decide approves the agent, or deletes it while it is still pending
	Decide(ctx context.Context, caller models.Identity, agentEmail string, approve bool) error
	ListPending(ctx context.Context, caller models.Identity) ([]*models.Account, error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}

// AccountService serves account views and admin account management
type AccountService interface {
	Profile(ctx context.Context, caller models.Identity) (*models.Account, error)
	Balance(ctx context.Context, caller models.Identity) (*models.BalanceView, error)
	History(ctx context.Context, caller models.Identity) ([]*models.Transaction, error)
	ListAccounts(ctx context.Context, caller models.Identity) ([]*models.Account, error)
	AllTransactions(ctx context.Context, caller models.Identity, page, limit int) ([]*models.Transaction, error)
	SetBlocked(ctx context.Context, caller models.Identity, accountID primitive.ObjectID, blocked bool) error
}

// Notifier receives committed outcomes. Implementations must not fail the caller.
type Notifier interface {
	TransactionCompleted(ctx context.Context, txn *models.Transaction, parties ...*models.Account)
	RechargeRequested(ctx context.Context, request *models.RechargeRequest)
	RechargeDecided(ctx context.Context, request *models.RechargeRequest, agent *models.Account)
	AgentDecided(ctx context.Context, email string, agent *models.Account, approved bool)
	AccountRegistered(ctx context.Context, account *models.Account)
}

// PINHasher hashes and verifies PINs
type PINHasher interface {
	Hash(pin string) (string, error)
	Compare(hash, pin string) error
}

// TokenIssuer issues access tokens for authenticated accounts
type TokenIssuer interface {
	Generate(subject, role, email string) (string, error)
}
