package auth

import (
	"errors"
	"testing"
	"time"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:            "test-secret-key",
		AccessTokenDuration:  time.Hour,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		Issuer:               "test-issuer",
	}
}

func TestJWTManager_GenerateAndValidateAccessToken(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	userID := "user-123"
	username := "alice"

	token, err := manager.GenerateAccessToken(userID, username)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Error("GenerateAccessToken() returned empty token")
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, userID)
	}
	if claims.Username != username {
		t.Errorf("claims.Username = %v, want %v", claims.Username, username)
	}
	if claims.TokenType != "access" {
		t.Errorf("claims.TokenType = %v, want %v", claims.TokenType, "access")
	}
	if claims.ID == "" {
		t.Error("claims.ID (jti) is empty")
	}
}

func TestJWTManager_TokenTypeConfusion(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	access, err := manager.GenerateAccessToken("user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	refresh, err := manager.GenerateRefreshToken("user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	// A refresh token must not pass access validation, and vice versa
	if _, err := manager.ValidateAccessToken(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateAccessToken(refresh) error = %v, want ErrInvalidToken", err)
	}
	if _, err := manager.ValidateRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateRefreshToken(access) error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	config := testJWTConfig()
	config.AccessTokenDuration = -time.Minute
	manager := NewJWTManager(config)

	token, err := manager.GenerateAccessToken("user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateAccessToken(expired) error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTManager_InvalidTokens(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	otherConfig := testJWTConfig()
	otherConfig.SecretKey = "a-different-secret"
	other := NewJWTManager(otherConfig)

	foreign, err := other.GenerateAccessToken("user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong signing key", token: foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateAccessToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateAccessToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestJWTManager_Revoke(t *testing.T) {
	manager := NewJWTManager(testJWTConfig())

	refresh, err := manager.GenerateRefreshToken("user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	if _, err := manager.ValidateRefreshToken(refresh); err != nil {
		t.Fatalf("ValidateRefreshToken() before revoke error = %v", err)
	}

	if err := manager.Revoke(refresh); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	if _, err := manager.ValidateRefreshToken(refresh); !errors.Is(err, ErrRevokedToken) {
		t.Errorf("ValidateRefreshToken() after revoke error = %v, want ErrRevokedToken", err)
	}

	// Revoking twice is a no-op
	if err := manager.Revoke(refresh); err != nil {
		t.Errorf("second Revoke() error = %v", err)
	}

	// Other tokens from the same user are unaffected
	fresh, err := manager.GenerateRefreshToken("user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	if _, err := manager.ValidateRefreshToken(fresh); err != nil {
		t.Errorf("ValidateRefreshToken() for fresh token error = %v", err)
	}
}

func TestRevocationList_PrunesExpired(t *testing.T) {
	list := NewRevocationList()

	list.Revoke("expired-jti", time.Now().Add(-time.Minute))
	if list.IsRevoked("expired-jti") {
		t.Error("IsRevoked() = true for a revocation past its token expiry")
	}

	// Next write prunes the dead entry
	list.Revoke("live-jti", time.Now().Add(time.Hour))
	if !list.IsRevoked("live-jti") {
		t.Error("IsRevoked() = false for a live revocation")
	}
	if list.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after pruning", list.Len())
	}
}
