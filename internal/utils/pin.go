package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPINMismatch is returned when a PIN does not match its hash
var ErrPINMismatch = errors.New("pin does not match")

// PINHasher hashes and verifies numeric PINs with bcrypt
type PINHasher struct {
	cost int
}

// NewPINHasher creates a PINHasher. Costs outside bcrypt's range fall back to the default.
func NewPINHasher(cost int) *PINHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PINHasher{cost: cost}
}

// Hash returns the bcrypt hash of pin
func (h *PINHasher) Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// Compare returns ErrPINMismatch when pin does not match hash
func (h *PINHasher) Compare(hash, pin string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPINMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to compare pin: %w", err)
	}
	return nil
}
