package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-service/internal/domain"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

// Authorizer decides whether a role may act on a resource.
type Authorizer interface {
	Allowed(role domain.Role, resource string) bool
}

// Authorize is the single role check used by every protected route. It must
// run after Authenticator.Handle.
func Authorize(authz Authorizer, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := Check(c, authz, resource); err != nil {
			return err
		}
		return c.Next()
	}
}

// Check applies the same decision inline, for handlers that pick the
// resource at runtime.
func Check(c *fiber.Ctx, authz Authorizer, resource string) error {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !authz.Allowed(claims.Role, resource) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}
