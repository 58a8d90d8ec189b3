package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
	"github.com/ArowuTest/mcash-backend/internal/utils"
)

// Compile-time check to ensure RechargeServiceImpl implements RechargeService
var _ RechargeService = (*RechargeServiceImpl)(nil)

// RechargeServiceImpl handles agent recharge requests and their admin decisions
type RechargeServiceImpl struct {
	accounts   repositories.AccountRepository
	requests   repositories.RechargeRequestRepository
	transactor repositories.Transactor
	limits     FeePolicy
	notifier   Notifier
	now        func() time.Time
}

// NewRechargeService creates a new RechargeServiceImpl
func NewRechargeService(
	accounts repositories.AccountRepository,
	requests repositories.RechargeRequestRepository,
	transactor repositories.Transactor,
	limits FeePolicy,
	notifier Notifier,
) *RechargeServiceImpl {
	return &RechargeServiceImpl{
		accounts:   accounts,
		requests:   requests,
		transactor: transactor,
		limits:     limits,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Request creates a pending recharge request for the calling, approved Agent
func (s *RechargeServiceImpl) Request(ctx context.Context, caller models.Identity, amount int64) (*models.RechargeRequest, error) {
	if err := requireRole(caller, "request a balance recharge", models.RoleAgent); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.Validation("amount must be positive")
	}
	if err := s.limits.checkMaximum(amount); err != nil {
		return nil, err
	}

	agent, err := loadCaller(ctx, s.accounts, caller)
	if err != nil {
		return nil, err
	}
	if !agent.Approved {
		return nil, apperrors.Forbidden("agent is not approved")
	}

	request := &models.RechargeRequest{
		RequestID:      utils.NewRequestID(),
		AgentAccountID: agent.ID,
		Amount:         amount,
		Status:         models.RechargePending,
		CreatedAt:      s.now(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, storeError(err, "recharge request")
	}

	slog.Info("Recharge requested", "requestId", request.RequestID, "agent", agent.ID.Hex(), "amount", amount)
	s.notifier.RechargeRequested(ctx, request)
	return request, nil
}

// Decide approves or rejects a pending request. The status flip and the agent
// credit commit together; only one decision per request can ever succeed.
func (s *RechargeServiceImpl) Decide(ctx context.Context, caller models.Identity, requestID string, approve bool) (*models.RechargeRequest, error) {
	if err := requireRole(caller, "process recharge requests", models.RoleAdmin); err != nil {
		return nil, err
	}

	existing, err := s.requests.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, storeError(err, "recharge request")
	}
	if existing.Status.Terminal() {
		return nil, apperrors.Conflict("request already processed")
	}

	to := models.RechargeRejected
	if approve {
		to = models.RechargeApproved
	}

	var decided *models.RechargeRequest
	err = s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.requests.Transition(ctx, requestID, to, caller.AccountID, s.now())
		if err != nil {
			return storeError(err, "recharge request")
		}
		if approve {
			if err := s.accounts.Credit(ctx, updated.AgentAccountID, updated.Amount, 0); err != nil {
				return storeError(err, "agent")
			}
		}
		decided = updated
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindConflict {
			return nil, apperrors.Conflict("request already processed")
		}
		return nil, storeError(err, "recharge request")
	}

	slog.Info("Recharge request processed", "requestId", requestID, "status", decided.Status, "admin", caller.AccountID.Hex())
	agent, err := s.accounts.FindByID(ctx, decided.AgentAccountID)
	if err != nil {
		slog.Warn("Failed to load agent for recharge notification", "requestId", requestID, "error", err)
	}
	s.notifier.RechargeDecided(ctx, decided, agent)
	return decided, nil
}

// ListPending returns pending requests, oldest first
func (s *RechargeServiceImpl) ListPending(ctx context.Context, caller models.Identity) ([]*models.RechargeRequest, error) {
	if err := requireRole(caller, "view recharge requests", models.RoleAdmin); err != nil {
		return nil, err
	}
	requests, err := s.requests.FindByStatus(ctx, models.RechargePending)
	if err != nil {
		return nil, storeError(err, "recharge requests")
	}
	return requests, nil
}

// ListMine returns the calling agent's requests, newest first
func (s *RechargeServiceImpl) ListMine(ctx context.Context, caller models.Identity) ([]*models.RechargeRequest, error) {
	if err := requireRole(caller, "view their recharge requests", models.RoleAgent); err != nil {
		return nil, err
	}
	requests, err := s.requests.FindByAgent(ctx, caller.AccountID)
	if err != nil {
		return nil, storeError(err, "recharge requests")
	}
	return requests, nil
}
