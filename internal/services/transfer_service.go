package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"github.com/ArowuTest/mcash-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure TransferServiceImpl implements TransferService
var _ TransferService = (*TransferServiceImpl)(nil)

// TransferServiceImpl applies each transfer as one atomic unit: the guarded
// debit first, then the credits, then the ledger append.
type TransferServiceImpl struct {
	accounts   repositories.AccountRepository
	ledger     repositories.TransactionRepository
	transactor repositories.Transactor
	pins       PINHasher
	fees       FeePolicy
	adminID    primitive.ObjectID
	notifier   Notifier
	now        func() time.Time
}

// NewTransferService creates a new TransferServiceImpl. adminID is the designated fee sink.
func NewTransferService(
	accounts repositories.AccountRepository,
	ledger repositories.TransactionRepository,
	transactor repositories.Transactor,
	pins PINHasher,
	fees FeePolicy,
	adminID primitive.ObjectID,
	notifier Notifier,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		accounts:   accounts,
		ledger:     ledger,
		transactor: transactor,
		pins:       pins,
		fees:       fees,
		adminID:    adminID,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SendMoney transfers amount from the calling User to the User owning recipientMobile
func (s *TransferServiceImpl) SendMoney(ctx context.Context, caller models.Identity, req *models.SendMoneyRequest) (*models.Transaction, error) {
	if err := requireRole(caller, "send money", models.RoleUser); err != nil {
		return nil, err
	}
	if req.Amount < s.fees.MinimumTransfer {
		return nil, apperrors.Validation("minimum amount is %d", s.fees.MinimumTransfer)
	}
	if err := s.fees.checkMaximum(req.Amount); err != nil {
		return nil, err
	}

	sender, err := loadCaller(ctx, s.accounts, caller)
	if err != nil {
		return nil, err
	}
	recipient, err := s.accounts.FindByMobile(ctx, req.RecipientMobile, models.RoleUser)
	if err != nil {
		return nil, storeError(err, "recipient")
	}
	if recipient.ID == sender.ID {
		return nil, apperrors.NotFound("recipient not found")
	}

	fee := s.fees.SendMoneyFee(req.Amount)
	totalDebit, err := addAmounts(req.Amount, fee)
	if err != nil {
		return nil, err
	}
	if sender.Balance < totalDebit {
		return nil, apperrors.InsufficientFunds("insufficient funds")
	}

	transactionID, err := s.transactionID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	txn := &models.Transaction{
		TransactionID:     transactionID,
		Type:              models.TransactionSendMoney,
		Amount:            req.Amount,
		Fee:               fee,
		PlatformFee:       fee,
		SenderAccountID:   sender.ID,
		ReceiverAccountID: recipient.ID,
		Timestamp:         s.now(),
		Details:           fmt.Sprintf("Sent %d taka to %s", req.Amount, recipient.MobileNumber),
	}

	err = s.apply(ctx, txn, func(ctx context.Context) error {
		if err := s.accounts.Debit(ctx, sender.ID, totalDebit); err != nil {
			return storeError(err, "sender account")
		}
		if err := s.accounts.Credit(ctx, recipient.ID, req.Amount, 0); err != nil {
			return storeError(err, "recipient")
		}
		return s.creditAdmin(ctx, fee)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Send money completed", "transactionId", txn.TransactionID, "sender", sender.ID.Hex(), "recipient", recipient.ID.Hex(), "amount", txn.Amount, "fee", fee)
	s.notifier.TransactionCompleted(ctx, txn, sender, recipient)
	return txn, nil
}

// CashIn moves amount from the calling Agent to the User owning userMobile
func (s *TransferServiceImpl) CashIn(ctx context.Context, caller models.Identity, req *models.CashInRequest) (*models.Transaction, error) {
	if err := requireRole(caller, "perform cash in", models.RoleAgent); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, apperrors.Validation("amount must be positive")
	}
	if err := s.fees.checkMaximum(req.Amount); err != nil {
		return nil, err
	}

	agent, err := loadCaller(ctx, s.accounts, caller)
	if err != nil {
		return nil, err
	}
	if !agent.Approved {
		return nil, apperrors.Forbidden("agent is not approved")
	}
	if err := verifyPIN(s.pins, agent.PINHash, req.AgentPIN); err != nil {
		return nil, err
	}
	if agent.Balance < req.Amount {
		return nil, apperrors.InsufficientFunds("insufficient funds in agent account")
	}
	user, err := s.accounts.FindByMobile(ctx, req.UserMobile, models.RoleUser)
	if err != nil {
		return nil, storeError(err, "user")
	}

	transactionID, err := s.transactionID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	txn := &models.Transaction{
		TransactionID:     transactionID,
		Type:              models.TransactionCashIn,
		Amount:            req.Amount,
		AgentAccountID:    agent.ID,
		ReceiverAccountID: user.ID,
		Timestamp:         s.now(),
		Details:           fmt.Sprintf("Agent %s transferred %d taka to user %s", agent.MobileNumber, req.Amount, user.MobileNumber),
	}

	err = s.apply(ctx, txn, func(ctx context.Context) error {
		if err := s.accounts.Debit(ctx, agent.ID, req.Amount); err != nil {
			return storeError(err, "agent account")
		}
		if err := s.accounts.Credit(ctx, user.ID, req.Amount, 0); err != nil {
			return storeError(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Cash in completed", "transactionId", txn.TransactionID, "agent", agent.ID.Hex(), "user", user.ID.Hex(), "amount", txn.Amount)
	s.notifier.TransactionCompleted(ctx, txn, agent, user)
	return txn, nil
}

// CashOut moves amount plus fee from the calling User; the agent receives the
// amount and its commission as income, the platform share goes to Admin
func (s *TransferServiceImpl) CashOut(ctx context.Context, caller models.Identity, req *models.CashOutRequest) (*models.Transaction, error) {
	if err := requireRole(caller, "cash out", models.RoleUser); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, apperrors.Validation("amount must be positive")
	}
	if err := s.fees.checkMaximum(req.Amount); err != nil {
		return nil, err
	}

	user, err := loadCaller(ctx, s.accounts, caller)
	if err != nil {
		return nil, err
	}
	if err := verifyPIN(s.pins, user.PINHash, req.PIN); err != nil {
		return nil, err
	}
	agent, err := s.accounts.FindByMobile(ctx, req.AgentMobile, models.RoleAgent)
	if err != nil {
		return nil, storeError(err, "agent")
	}
	if !agent.Approved {
		return nil, apperrors.Forbidden("agent is not approved")
	}

	fees := s.fees.CashOutFees(req.Amount)
	totalDebit, err := addAmounts(req.Amount, fees.Fee)
	if err != nil {
		return nil, err
	}
	if user.Balance < totalDebit {
		return nil, apperrors.InsufficientFunds("insufficient funds")
	}

	transactionID, err := s.transactionID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	txn := &models.Transaction{
		TransactionID:   transactionID,
		Type:            models.TransactionCashOut,
		Amount:          req.Amount,
		Fee:             fees.Fee,
		PlatformFee:     fees.PlatformFee,
		AgentCommission: fees.AgentCommission,
		SenderAccountID: user.ID,
		AgentAccountID:  agent.ID,
		Timestamp:       s.now(),
		Details:         fmt.Sprintf("Cashed out %d taka via agent %s", req.Amount, agent.MobileNumber),
	}

	err = s.apply(ctx, txn, func(ctx context.Context) error {
		if err := s.accounts.Debit(ctx, user.ID, totalDebit); err != nil {
			return storeError(err, "user account")
		}
		if err := s.accounts.Credit(ctx, agent.ID, req.Amount, fees.AgentCommission); err != nil {
			return storeError(err, "agent")
		}
		return s.creditAdmin(ctx, fees.PlatformFee)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Cash out completed", "transactionId", txn.TransactionID, "user", user.ID.Hex(), "agent", agent.ID.Hex(), "amount", txn.Amount, "fee", fees.Fee)
	s.notifier.TransactionCompleted(ctx, txn, user, agent)
	return txn, nil
}

// transactionID returns the client-supplied id, or a fresh one. A supplied id
// that is already in the ledger is a resubmission.
func (s *TransferServiceImpl) transactionID(ctx context.Context, supplied string) (string, error) {
	if supplied == "" {
		return utils.NewTransactionID(), nil
	}
	if !utils.IsValidTransactionID(supplied) {
		return "", apperrors.Validation("transactionId must be a uuid")
	}
	_, err := s.ledger.FindByTransactionID(ctx, supplied)
	switch {
	case err == nil:
		return "", apperrors.Conflict("transaction %s was already processed", supplied)
	case errors.Is(err, repositories.ErrNotFound):
		return supplied, nil
	default:
		return "", apperrors.Internal(err, "failed to check transaction id")
	}
}

// apply runs mutate and appends txn in one atomic unit
func (s *TransferServiceImpl) apply(ctx context.Context, txn *models.Transaction, mutate func(ctx context.Context) error) error {
	err := s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if err := mutate(ctx); err != nil {
			return err
		}
		if err := s.ledger.Append(ctx, txn); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return apperrors.Conflict("transaction %s was already processed", txn.TransactionID)
			}
			return apperrors.Internal(err, "failed to record transaction")
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if apperrors.KindOf(err) == apperrors.KindInternal {
		slog.Error("Transfer aborted", "transactionId", txn.TransactionID, "type", txn.Type, "error", err)
	}
	return storeError(err, "transaction")
}

func (s *TransferServiceImpl) creditAdmin(ctx context.Context, amount int64) error {
	if amount == 0 {
		return nil
	}
	if err := s.accounts.CreditFee(ctx, s.adminID, amount); err != nil {
		return storeError(err, "admin account")
	}
	return nil
}
