package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/parleyhq/parley/internal/core/domain"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, userID string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}
	return signed
}

func TestVerifier_ValidToken(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, testSecret, "alice", time.Now().Add(time.Hour))

	identity, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if identity.UserID != "alice" {
		t.Errorf("Verify() user = %q, want alice", identity.UserID)
	}
}

func TestVerifier_RejectsBadTokens(t *testing.T) {
	v := NewVerifier(testSecret)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			"expired",
			signToken(t, testSecret, "alice", time.Now().Add(-time.Hour)),
			domain.ErrExpiredToken,
		},
		{
			"wrong secret",
			signToken(t, "other-secret", "alice", time.Now().Add(time.Hour)),
			domain.ErrInvalidToken,
		},
		{
			"missing user id",
			signToken(t, testSecret, "", time.Now().Add(time.Hour)),
			domain.ErrInvalidToken,
		},
		{
			"garbage",
			"not-a-token",
			domain.ErrInvalidToken,
		},
		{
			"empty",
			"",
			domain.ErrInvalidToken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
