package auth

import (
	"testing"

	"github.com/spec-kit/feedback-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, exp, err := tm.GenerateToken("user-1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if exp.IsZero() {
		t.Error("expected an expiry")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "user-1" {
		t.Errorf("expected subject user-1, got %q", claims.SubjectID)
	}
	if claims.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %q", claims.Role)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("user-1", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 60).ParseToken(token); err == nil {
		t.Error("expected verification to fail with the wrong secret")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := NewTokenManager("secret", 60).ParseToken("not-a-token"); err == nil {
		t.Error("expected parse to fail")
	}
}
