package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-service/internal/api/dto"
	"github.com/spec-kit/donor-service/internal/auth"
	"github.com/spec-kit/donor-service/internal/events"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

// CookieSettings controls the session cookie written at login.
type CookieSettings struct {
	Name   string
	Secure bool
}

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(kind, outcome string)
}

func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(dst)
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func queryID(c *fiber.Ctx, key string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError("invalid "+key, map[string]any{key: raw})
	}
	return &id, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+key+", expected RFC3339", map[string]any{key: raw})
	}
	return &t, nil
}

func paging(c *fiber.Ctx) (int, int) {
	return c.QueryInt("limit", 50), c.QueryInt("offset", 0)
}

// principal returns the verified claims; routes using it sit behind the authenticator.
func principal(c *fiber.Ctx) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return claims, nil
}

func actorOf(c *fiber.Ctx) *events.Actor {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return nil
	}
	return &events.Actor{ID: claims.UserID, Role: claims.Role}
}

func setSessionCookie(c *fiber.Ctx, cfg CookieSettings, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c *fiber.Ctx, cfg CookieSettings) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func recordLogin(r LoginRecorder, kind string, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if apperrors.HasStatus(err, fiber.StatusTooManyRequests) {
			outcome = "throttled"
		}
	}
	r.RecordLogin(kind, outcome)
}
