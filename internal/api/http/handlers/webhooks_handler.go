package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-service/internal/service"
)

// WebhooksHandler receives payment provider callbacks.
type WebhooksHandler struct {
	payments *service.PaymentService
}

// NewWebhooksHandler constructs handler.
func NewWebhooksHandler(payments *service.PaymentService) *WebhooksHandler {
	return &WebhooksHandler{payments: payments}
}

// Stripe handles POST /api/webhooks/stripe. The raw body is verified before parsing.
func (h *WebhooksHandler) Stripe(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	result, err := h.payments.HandleStripeWebhook(c.UserContext(), payload, c.Get("Stripe-Signature"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
