package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the fixed set of account roles
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// ParseRole converts a raw role string, rejecting anything outside the closed set
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAgent, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Account represents a user, agent or admin wallet
type Account struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name               string             `bson:"name" json:"name"`
	Role               Role               `bson:"role" json:"role"`
	MobileNumber       string             `bson:"mobile" json:"mobile"`
	NationalID         string             `bson:"nid" json:"nid"`
	Email              string             `bson:"email" json:"email"`
	PINHash            string             `bson:"pin" json:"-"`
	Balance            int64              `bson:"balance" json:"balance"`
	IncomeAccrued      int64              `bson:"income" json:"income"`
	Approved           bool               `bson:"approved" json:"approved"`
	Blocked            bool               `bson:"isBlocked" json:"isBlocked"`
	LastLoggedInDevice string             `bson:"lastLoggedInDevice,omitempty" json:"lastLoggedInDevice,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
}

// Clone returns a copy that shares no mutable state with a
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// AccountFilter narrows account listings
type AccountFilter struct {
	Roles    []Role
	Approved *bool
}

// BalanceView is the balance summary shown to the account holder
type BalanceView struct {
	Balance int64 `json:"balance"`
	Income  int64 `json:"income"`
}
