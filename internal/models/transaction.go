package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionType identifies the money movement recorded by a ledger entry
type TransactionType string

const (
	TransactionSendMoney TransactionType = "sendMoney"
	TransactionCashIn    TransactionType = "cashIn"
	TransactionCashOut   TransactionType = "cashOut"
)

// Transaction is an immutable ledger entry.
// SendMoney sets sender and receiver, CashIn sets agent and receiver, CashOut sets sender and agent.
type Transaction struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TransactionID     string             `bson:"transactionId" json:"transactionId"`
	Type              TransactionType    `bson:"type" json:"type"`
	Amount            int64              `bson:"amount" json:"amount"`
	Fee               int64              `bson:"fee" json:"fee"`
	PlatformFee       int64              `bson:"platformFee" json:"platformFee"`
	AgentCommission   int64              `bson:"agentCommission" json:"agentCommission"`
	SenderAccountID   primitive.ObjectID `bson:"senderAccountId,omitempty" json:"senderAccountId,omitempty"`
	ReceiverAccountID primitive.ObjectID `bson:"receiverAccountId,omitempty" json:"receiverAccountId,omitempty"`
	AgentAccountID    primitive.ObjectID `bson:"agentAccountId,omitempty" json:"agentAccountId,omitempty"`
	Timestamp         time.Time          `bson:"timestamp" json:"timestamp"`
	Details           string             `bson:"details" json:"details"`
}

// Involves reports whether the account appears on any side of the entry
func (t *Transaction) Involves(accountID primitive.ObjectID) bool {
	return t.SenderAccountID == accountID || t.ReceiverAccountID == accountID || t.AgentAccountID == accountID
}
