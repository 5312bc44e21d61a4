package handlers

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-service/internal/api/dto"
	"github.com/spec-kit/donor-service/internal/repository"
	"github.com/spec-kit/donor-service/internal/service"
)

const defaultAdminLanding = "/admin"

var loginPage = template.Must(template.New("login").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Admin sign in</title></head>
<body>
<h1>Admin sign in</h1>
{{if .Failed}}<p role="alert">Invalid email or password</p>{{end}}
<form method="post" action="{{.Action}}">
<input type="hidden" name="next" value="{{.Next}}">
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" minlength="8" required></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`))

// ConfigSource returns a secret-free view of the running configuration.
type ConfigSource interface {
	Redacted() map[string]any
}

// AdminHandler serves the admin login surface and staff-only endpoints.
type AdminHandler struct {
	auth      *service.AuthService
	admins    repository.AdminRepository
	txs       *service.TransactionService
	cfg       ConfigSource
	cookie    CookieSettings
	loginPath string
	metrics   LoginRecorder
}

// AdminDependencies bundles collaborators for AdminHandler.
type AdminDependencies struct {
	Auth         *service.AuthService
	AdminRepo    repository.AdminRepository
	Transactions *service.TransactionService
	Config       ConfigSource
	Cookie       CookieSettings
	LoginPath    string
	Metrics      LoginRecorder
}

// NewAdminHandler constructs handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	loginPath := deps.LoginPath
	if loginPath == "" {
		loginPath = "/admin/login"
	}
	return &AdminHandler{
		auth:      deps.Auth,
		admins:    deps.AdminRepo,
		txs:       deps.Transactions,
		cfg:       deps.Config,
		cookie:    deps.Cookie,
		loginPath: loginPath,
		metrics:   deps.Metrics,
	}
}

// LoginForm handles GET /admin/login.
func (h *AdminHandler) LoginForm(c *fiber.Ctx) error {
	var b strings.Builder
	err := loginPage.Execute(&b, map[string]any{
		"Action": h.loginPath,
		"Next":   safeNext(c.Query("next")),
		"Failed": c.Query("error") != "",
	})
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(b.String())
}

// Login handles POST /admin/login for both JSON clients and the HTML form.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	isForm := !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON)

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		if isForm {
			return h.redirectFailed(c)
		}
		return err
	}
	if err := dto.Validate(req); err != nil {
		if isForm {
			return h.redirectFailed(c)
		}
		return err
	}

	admin, session, err := h.auth.LoginAdmin(c.UserContext(), req.Email, req.Password)
	recordLogin(h.metrics, "admin", err)
	if err != nil {
		if isForm {
			return h.redirectFailed(c)
		}
		return err
	}

	setSessionCookie(c, h.cookie, session.Token, session.ExpiresAt)
	if isForm {
		return c.Redirect(safeNext(c.FormValue("next")), http.StatusSeeOther)
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"admin": dto.AdminFromDomain(admin),
			"auth":  dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

func (h *AdminHandler) redirectFailed(c *fiber.Ctx) error {
	target := h.loginPath + "?error=1&next=" + url.QueryEscape(safeNext(c.FormValue("next")))
	return c.Redirect(target, http.StatusSeeOther)
}

// Logout handles POST /admin/logout.
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	clearSessionCookie(c, h.cookie)
	return c.Redirect(h.loginPath, http.StatusSeeOther)
}

// Dashboard handles GET /admin.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	claims, err := principal(c)
	if err != nil {
		return err
	}
	summary, err := h.txs.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"viewer": fiber.Map{"id": claims.UserID, "email": claims.Email, "role": claims.Role},
			"summary": dto.DashboardResponse{
				Donors:              summary.Donors,
				Organizations:       summary.Organizations,
				Transactions:        summary.Transactions,
				SucceededTotalCents: summary.SucceededTotalCents,
			},
		},
	})
}

// CreateAdmin handles POST /admin/api/admins.
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var req dto.AdminCreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	admin, err := h.auth.CreateAdmin(c.UserContext(), service.CreateAdminInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AdminFromDomain(admin)})
}

// ListAdmins handles GET /admin/api/admins.
func (h *AdminHandler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.admins.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.AdminResponse, 0, len(admins))
	for i := range admins {
		out = append(out, dto.AdminFromDomain(&admins[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// DebugConfig handles GET /admin/api/debug/config.
func (h *AdminHandler) DebugConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.cfg.Redacted()})
}

// safeNext only allows local absolute paths as post-login targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return defaultAdminLanding
	}
	return next
}
