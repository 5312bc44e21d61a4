package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

const claimsKey = "auth_claims"

// FailureRecorder receives the reason of every rejected credential.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// Authenticator verifies credentials on protected routes.
type Authenticator struct {
	tokens     *TokenManager
	cookieName string
	logger     *zap.Logger
	failures   FailureRecorder
}

// NewAuthenticator constructs middleware. failures may be nil.
func NewAuthenticator(tokens *TokenManager, cookieName string, logger *zap.Logger, failures FailureRecorder) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{tokens: tokens, cookieName: cookieName, logger: logger, failures: failures}
}

// Handle enforces authentication for protected routes.
func (a *Authenticator) Handle(c *fiber.Ctx) error {
	claims, err := a.tokens.Verify(ExtractToken(c, a.cookieName))
	if err != nil {
		reason := FailureReason(err)
		if a.failures != nil {
			a.failures.RecordAuthFailure(reason)
		}
		a.logger.Info("credential rejected",
			zap.String("reason", reason),
			zap.String("path", c.Path()),
			zap.Error(err))
		return apperrors.NewUnauthorizedWithCause("authentication required", err)
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ExtractToken reads the credential from the named cookie, falling back to
// an Authorization: Bearer header.
func ExtractToken(c *fiber.Ctx, cookieName string) string {
	if cookieName != "" {
		if v := strings.TrimSpace(c.Cookies(cookieName)); v != "" {
			return v
		}
	}

	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ClaimsFromContext retrieves the verified claims.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
