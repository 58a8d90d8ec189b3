package events

import "time"

// Event types
const (
	TransactionCreated = "transaction.created"
	RechargeRequested  = "recharge.requested"
	RechargeDecided    = "recharge.decided"
	AgentApproved      = "agent.approved"
	AgentRejected      = "agent.rejected"
	AccountRegistered  = "account.registered"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TransactionCreatedEvent is published after a ledger entry commits
type TransactionCreatedEvent struct {
	TransactionID     string `json:"transactionId"`
	Type              string `json:"type"`
	Amount            int64  `json:"amount"`
	Fee               int64  `json:"fee"`
	SenderAccountID   string `json:"senderAccountId,omitempty"`
	ReceiverAccountID string `json:"receiverAccountId,omitempty"`
	AgentAccountID    string `json:"agentAccountId,omitempty"`
}

// RechargeEvent is published when a recharge request is created or decided
type RechargeEvent struct {
	RequestID      string `json:"requestId"`
	AgentAccountID string `json:"agentId"`
	Amount         int64  `json:"amount"`
	Status         string `json:"status"`
}

// AgentEvent is published when an agent is approved or rejected
type AgentEvent struct {
	AccountID string `json:"accountId,omitempty"`
	Email     string `json:"email"`
}

// AccountRegisteredEvent is published after self-registration
type AccountRegisteredEvent struct {
	AccountID string `json:"accountId"`
	Role      string `json:"role"`
}
