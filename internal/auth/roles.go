package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/domain"
	apperrors "github.com/spec-kit/feedback-service/pkg/util"
)

// RequireAdmin ensures the authenticated account carries the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.User.Role != domain.RoleAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a caller is logged in, any role.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
