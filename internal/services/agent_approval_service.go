package services

import (
	"context"
	"log/slog"

	"github.com/ArowuTest/mcash-backend/internal/apperrors"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/repositories"
)

// Compile-time check to ensure AgentApprovalServiceImpl implements AgentApprovalService
var _ AgentApprovalService = (*AgentApprovalServiceImpl)(nil)

// AgentApprovalServiceImpl handles admin decisions on new agents
type AgentApprovalServiceImpl struct {
	accounts repositories.AccountRepository
	notifier Notifier
}

// NewAgentApprovalService creates a new AgentApprovalServiceImpl
func NewAgentApprovalService(accounts repositories.AccountRepository, notifier Notifier) *AgentApprovalServiceImpl {
	return &AgentApprovalServiceImpl{accounts: accounts, notifier: notifier}
}

// Decide approves the agent, or removes it while it is still unapproved.
// Rejecting an agent that is already approved is a Conflict.
func (s *AgentApprovalServiceImpl) Decide(ctx context.Context, caller models.Identity, agentEmail string, approve bool) error {
	if err := requireRole(caller, "approve agents", models.RoleAdmin); err != nil {
		return err
	}
	if agentEmail == "" {
		return apperrors.Validation("agent email is required")
	}

	if approve {
		agent, err := s.accounts.SetApproved(ctx, agentEmail)
		if err != nil {
			return storeError(err, "agent")
		}
		slog.Info("Agent approved", "agent", agent.ID.Hex(), "admin", caller.AccountID.Hex())
		s.notifier.AgentDecided(ctx, agentEmail, agent, true)
		return nil
	}

	// Load first so the rejection notice can still reach the removed agent
	agent, err := s.accounts.FindByEmail(ctx, agentEmail)
	if err != nil {
		return storeError(err, "agent")
	}
	if agent.Role != models.RoleAgent {
		return apperrors.NotFound("agent not found")
	}
	if err := s.accounts.DeletePendingAgent(ctx, agentEmail); err != nil {
		if apperrors.KindOf(storeError(err, "agent")) == apperrors.KindConflict {
			return apperrors.Conflict("agent is already approved")
		}
		return storeError(err, "agent")
	}
	slog.Info("Agent rejected and removed", "agent", agent.ID.Hex(), "admin", caller.AccountID.Hex())
	s.notifier.AgentDecided(ctx, agentEmail, agent, false)
	return nil
}

// ListPending returns agents awaiting approval, newest first
func (s *AgentApprovalServiceImpl) ListPending(ctx context.Context, caller models.Identity) ([]*models.Account, error) {
	if err := requireRole(caller, "view agent approvals", models.RoleAdmin); err != nil {
		return nil, err
	}
	pending := false
	agents, err := s.accounts.List(ctx, models.AccountFilter{Roles: []models.Role{models.RoleAgent}, Approved: &pending})
	if err != nil {
		return nil, storeError(err, "agents")
	}
	return agents, nil
}
