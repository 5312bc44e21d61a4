package auth

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GateConfig describes which paths require a credential to be present.
type GateConfig struct {
	ProtectedPrefixes []string
	ExemptPaths       []string
	CookieName        string
	LoginPath         string
}

// Gate returns a pre-routing filter that only checks that a credential is
// present on protected paths. Signature and expiry are verified later by
// Authenticator on the routes themselves.
func Gate(cfg GateConfig) fiber.Handler {
	exempt := append([]string{}, cfg.ExemptPaths...)
	if cfg.LoginPath != "" {
		exempt = append(exempt, cfg.LoginPath)
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if !matchesAny(path, cfg.ProtectedPrefixes) || matchesAny(path, exempt) {
			return c.Next()
		}
		if ExtractToken(c, cfg.CookieName) != "" {
			return c.Next()
		}
		return c.Redirect(cfg.LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
}

func matchesAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches whole path segments: /admin covers /admin and
// /admin/x but not /administrator. Matching ignores case, as Fiber routing does.
func hasPathPrefix(path, prefix string) bool {
	path = strings.ToLower(path)
	prefix = strings.ToLower(strings.TrimRight(prefix, "/"))
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
