package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store-level failures. Implementations return these (possibly wrapped) so
// services can classify them without knowing the storage engine.
var (
	ErrNotFound            = errors.New("document not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInsufficientBalance = errors.New("balance below requested debit")
	ErrConflict            = errors.New("document is not in the expected state")
	ErrInvalidAmount       = errors.New("amount out of range")
)

// Transactor runs a unit of work atomically. Every repository call made with
// the context handed to fn joins the unit; either all of its writes become
// visible together or none do.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByMobile(ctx context.Context, mobile string, role models.Role) (*models.Account, error)
	ExistsByIdentity(ctx context.Context, email, mobile, nationalID string) (bool, error)
	List(ctx context.Context, filter models.AccountFilter) ([]*models.Account, error)
	// Debit subtracts amount only when the balance covers it; amount must be positive
	Debit(ctx context.Context, id primitive.ObjectID, amount int64) error
	// Credit increments balance and accrued income; neither may be negative.
	// Concurrent credits commute.
	Credit(ctx context.Context, id primitive.ObjectID, amount, income int64) error
	// CreditFee credits the fee sink. It never writes a document another
	// transfer writes, so concurrent fee credits do not contend.
	CreditFee(ctx context.Context, id primitive.ObjectID, amount int64) error
	SetApproved(ctx context.Context, email string) (*models.Account, error)
	DeletePendingAgent(ctx context.Context, email string) error
	SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) error
	RecordLogin(ctx context.Context, id primitive.ObjectID, device string) error
}

// TransactionRepository is the append-only ledger
type TransactionRepository interface {
	Append(ctx context.Context, transaction *models.Transaction) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	FindByAccount(ctx context.Context, accountID primitive.ObjectID, limit int) ([]*models.Transaction, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Transaction, error)
}

// RechargeRequestRepository defines the interface for recharge request operations
type RechargeRequestRepository interface {
	Create(ctx context.Context, request *models.RechargeRequest) error
	FindByRequestID(ctx context.Context, requestID string) (*models.RechargeRequest, error)
	FindByStatus(ctx context.Context, status models.RechargeStatus) ([]*models.RechargeRequest, error)
	FindByAgent(ctx context.Context, agentID primitive.ObjectID) ([]*models.RechargeRequest, error)
	// Transition moves a pending request to a terminal status; ErrConflict if it is no longer pending
	Transition(ctx context.Context, requestID string, to models.RechargeStatus, processedBy primitive.ObjectID, at time.Time) (*models.RechargeRequest, error)
}
