package auth_test

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"ms-marketplace/internal/auth"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestExtractTokenFromRequest(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := auth.ExtractTokenFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Errorf("expected token abc.def.ghi, got %s", token)
	}
}

func TestExtractTokenFromRequestMissingHeader(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/api/orders", nil)

	if _, err := auth.ExtractTokenFromRequest(req); err == nil {
		t.Error("expected error for missing Authorization header")
	}

	req.Header.Set("Authorization", "Token abc")
	if _, err := auth.ExtractTokenFromRequest(req); err == nil {
		t.Error("expected error for non-bearer Authorization header")
	}
}

func TestExtractIdentityFromJWT(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "buyer-1", "name": "Alice"})

	identity, err := auth.ExtractIdentityFromJWT(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "buyer-1" {
		t.Errorf("expected user id buyer-1, got %s", identity.UserID)
	}
	if identity.DisplayName != "Alice" {
		t.Errorf("expected display name Alice, got %s", identity.DisplayName)
	}
}

func TestExtractIdentityFallsBackToPreferredUsername(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "seller-1", "preferred_username": "bob"})

	identity, err := auth.ExtractIdentityFromJWT(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.DisplayName != "bob" {
		t.Errorf("expected display name bob, got %s", identity.DisplayName)
	}
}

func TestExtractIdentityRequiresSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"name": "no subject"})

	if _, err := auth.ExtractIdentityFromJWT(token); err == nil {
		t.Error("expected error for token without sub claim")
	}

	if _, err := auth.ExtractIdentityFromJWT(""); err == nil {
		t.Error("expected error for empty token")
	}

	if _, err := auth.ExtractIdentityFromJWT("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestExtractUserIDFromJWT(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "buyer-2"})

	userID, err := auth.ExtractUserIDFromJWT(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "buyer-2" {
		t.Errorf("expected user id buyer-2, got %s", userID)
	}
}
