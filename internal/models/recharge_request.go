package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RechargeStatus is the lifecycle state of a recharge request
type RechargeStatus string

const (
	RechargePending  RechargeStatus = "pending"
	RechargeApproved RechargeStatus = "approved"
	RechargeRejected RechargeStatus = "rejected"
)

// Terminal reports whether no further transition is allowed
func (s RechargeStatus) Terminal() bool {
	return s == RechargeApproved || s == RechargeRejected
}

// RechargeRequest is an agent's request for the admin to top up the agent balance
type RechargeRequest struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"-"`
	RequestID      string              `bson:"requestId" json:"requestId"`
	AgentAccountID primitive.ObjectID  `bson:"agentId" json:"agentId"`
	Amount         int64               `bson:"amount" json:"amount"`
	Status         RechargeStatus      `bson:"status" json:"status"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	ProcessedAt    *time.Time          `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	ProcessedBy    *primitive.ObjectID `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
}

// Clone returns a deep copy
func (r *RechargeRequest) Clone() *RechargeRequest {
	c := *r
	if r.ProcessedAt != nil {
		at := *r.ProcessedAt
		c.ProcessedAt = &at
	}
	if r.ProcessedBy != nil {
		by := *r.ProcessedBy
		c.ProcessedBy = &by
	}
	return &c
}
