package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-service/internal/service"
)

// PlaidHandler issues bank-link tokens.
type PlaidHandler struct {
	links *service.BankLinkService
}

// NewPlaidHandler constructs handler.
func NewPlaidHandler(links *service.BankLinkService) *PlaidHandler {
	return &PlaidHandler{links: links}
}

// LinkToken handles POST /api/plaid/link-token.
func (h *PlaidHandler) LinkToken(c *fiber.Ctx) error {
	claims, err := principal(c)
	if err != nil {
		return err
	}
	token, err := h.links.CreateLinkToken(c.UserContext(), claims.Role, claims.UserID, claims.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": token})
}
