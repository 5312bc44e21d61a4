package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-service/internal/api/dto"
	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/service"
)

// AuthHandler exposes donor account endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	donors  *service.DonorService
	cookie  CookieSettings
	metrics LoginRecorder
}

// NewAuthHandler constructs handler. metrics may be nil.
func NewAuthHandler(authService *service.AuthService, donors *service.DonorService, cookie CookieSettings, metrics LoginRecorder) *AuthHandler {
	return &AuthHandler{auth: authService, donors: donors, cookie: cookie, metrics: metrics}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.DonorRegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	donor, session, err := h.auth.RegisterDonor(c.UserContext(), service.RegisterDonorInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		return err
	}

	setSessionCookie(c, h.cookie, session.Token, session.ExpiresAt)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"donor": dto.DonorFromDomain(donor),
			"auth":  dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	donor, session, err := h.auth.LoginDonor(c.UserContext(), req.Email, req.Password)
	recordLogin(h.metrics, "donor", err)
	if err != nil {
		return err
	}

	setSessionCookie(c, h.cookie, session.Token, session.ExpiresAt)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"donor": dto.DonorFromDomain(donor),
			"auth":  dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// Logout clears the session cookie. Issued tokens stay valid until expiry.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	clearSessionCookie(c, h.cookie)
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, err := principal(c)
	if err != nil {
		return err
	}
	resp := dto.MeResponse{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
	if claims.Role == domain.RoleDonor {
		donor, err := h.donors.Get(c.UserContext(), claims.UserID)
		if err != nil {
			return err
		}
		view := dto.DonorFromDomain(donor)
		resp.Donor = &view
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ChangePassword handles POST /api/auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claims, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), claims.Role, claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
