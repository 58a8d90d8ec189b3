package utils

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewTransactionID returns a random v4 uuid for a ledger entry
func NewTransactionID() string {
	return uuid.NewString()
}

// IsValidTransactionID reports whether s parses as a uuid
func IsValidTransactionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// NewRequestID returns a ULID for a recharge request, so ids sort by creation time
func NewRequestID() string {
	return ulid.Make().String()
}

// IsValidRequestID reports whether s parses as a ULID
func IsValidRequestID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
