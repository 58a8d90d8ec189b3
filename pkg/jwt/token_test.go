package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Generate("65a000000000000000000001", "agent", "a@mcash.test")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "65a000000000000000000001" || claims.Role != "agent" || claims.Email != "a@mcash.test" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	issuer := NewTokenService("secret", time.Hour)
	token, _ := issuer.Generate("65a000000000000000000001", "user", "")

	expired := NewTokenService("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	tests := []struct {
		name    string
		svc     *TokenService
		token   string
		wantErr error
	}{
		{"wrong secret", NewTokenService("other", time.Hour), token, ErrInvalidToken},
		{"garbage", issuer, "not.a.token", ErrInvalidToken},
		{"expired", expired, token, ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.svc.Validate(tt.token); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
