package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/feedback-service/internal/auth"
	"github.com/spec-kit/feedback-service/internal/config"
	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
	apperrors "github.com/spec-kit/feedback-service/pkg/util"
)

func testAuthConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
	}
}

func newTestAuthService() (*AuthService, *repository.MemoryStores) {
	stores := repository.NewMemoryStores()
	return NewAuthService(testAuthConfig(), stores.Users), stores
}

func domainErrCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Code
}

func TestRegisterCustomer(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, token, _, err := svc.RegisterCustomer(ctx, "Alice", "Alice@Example.com ", "s3cret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" {
		t.Error("expected user to receive an id")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("expected customer role, got %q", user.Role)
	}
	if token == "" {
		t.Error("expected a token to be issued")
	}
	if user.PasswordHash == "s3cret" {
		t.Error("password must not be stored in the clear")
	}
	if err := auth.ComparePassword(user.PasswordHash, "s3cret"); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegisterCustomer_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, _, err := svc.RegisterCustomer(ctx, "Alice", "a@x.com", "pw1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, _, err := svc.RegisterCustomer(ctx, "Other Alice", "A@X.com", "pw2")
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if code := domainErrCode(t, err); code != "CONFLICT" {
		t.Errorf("expected CONFLICT, got %s", code)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, _, err := svc.RegisterCustomer(ctx, "Alice", "a@x.com", "right"); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{"success", "a@x.com", "right", ""},
		{"wrong password", "a@x.com", "wrong", "UNAUTHORIZED"},
		{"unknown email", "nobody@x.com", "right", "UNAUTHORIZED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, token, _, err := svc.Login(ctx, tc.email, tc.password)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("login: %v", err)
				}
				if token == "" {
					t.Error("expected a token")
				}
				return
			}
			if err == nil {
				t.Fatal("expected login to fail")
			}
			if code := domainErrCode(t, err); code != tc.wantCode {
				t.Errorf("expected %s, got %s", tc.wantCode, code)
			}
		})
	}
}

func TestLegacyLogin_DistinguishesFailures(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, _, err := svc.RegisterCustomer(ctx, "Alice", "a@x.com", "right"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.LegacyLogin(ctx, "nobody@x.com", "right"); err == nil {
		t.Fatal("expected unknown account to fail")
	} else if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND for unknown account, got %s", code)
	}

	if _, err := svc.LegacyLogin(ctx, "a@x.com", "wrong"); err == nil {
		t.Fatal("expected wrong password to fail")
	} else if code := domainErrCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED for wrong password, got %s", code)
	}

	user, err := svc.LegacyLogin(ctx, "a@x.com", "right")
	if err != nil {
		t.Fatalf("legacy login: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Errorf("unexpected user returned: %q", user.Email)
	}
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	first, err := svc.EnsureAdmin(ctx, "Admin", "admin@x.com", "adminpw")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if first.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %q", first.Role)
	}

	second, err := svc.EnsureAdmin(ctx, "Admin", "admin@x.com", "differentpw")
	if err != nil {
		t.Fatalf("second ensure admin: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected the existing admin account to be reused")
	}
}
