package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the verified caller supplied by the authentication middleware
type Identity struct {
	AccountID primitive.ObjectID
	Role      Role
}

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email  string `json:"email" binding:"required,email"`
	PIN    string `json:"pin" binding:"required,numeric"`
	Device string `json:"device"`
}

// RegisterRequest defines the structure for registration requests
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	PIN        string `json:"pin" binding:"required,numeric,min=4,max=6"`
	NationalID string `json:"nid" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Mobile     string `json:"mobile" binding:"required,numeric,min=10,max=15"`
	Role       string `json:"role" binding:"required,oneof=user agent"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}
