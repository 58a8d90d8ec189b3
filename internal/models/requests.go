package models

// SendMoneyRequest is a user-to-user transfer.
// TransactionID is an optional client-generated uuid; a resubmission with the same id is rejected.
type SendMoneyRequest struct {
	RecipientMobile string `json:"recipientMobile" binding:"required"`
	Amount          int64  `json:"amount" binding:"required"`
	TransactionID   string `json:"transactionId" binding:"omitempty,uuid"`
}

// CashInRequest is an agent converting cash into a user's balance
type CashInRequest struct {
	UserMobile    string `json:"userMobile" binding:"required"`
	Amount        int64  `json:"amount" binding:"required"`
	AgentPIN      string `json:"agentPin" binding:"required"`
	TransactionID string `json:"transactionId" binding:"omitempty,uuid"`
}

// CashOutRequest is a user converting balance into cash at an agent
type CashOutRequest struct {
	AgentMobile   string `json:"agentMobile" binding:"required"`
	Amount        int64  `json:"amount" binding:"required"`
	PIN           string `json:"pin" binding:"required"`
	TransactionID string `json:"transactionId" binding:"omitempty,uuid"`
}

// RechargeCreateRequest is an agent's balance recharge request
type RechargeCreateRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// DecisionRequest carries an admin approve/reject decision
type DecisionRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// BlockRequest toggles the blocked flag on an account
type BlockRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}
