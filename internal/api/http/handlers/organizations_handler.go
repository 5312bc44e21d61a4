package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-service/internal/api/dto"
	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/repository"
	"github.com/spec-kit/donor-service/internal/service"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

// OrganizationsHandler exposes organization endpoints.
type OrganizationsHandler struct {
	orgs *service.OrganizationService
}

// NewOrganizationsHandler constructs handler.
func NewOrganizationsHandler(orgs *service.OrganizationService) *OrganizationsHandler {
	return &OrganizationsHandler{orgs: orgs}
}

// List handles GET /api/organizations and /admin/api/organizations.
func (h *OrganizationsHandler) List(c *fiber.Ctx) error {
	filter := repository.OrganizationFilter{Search: c.Query("search")}
	filter.Limit, filter.Offset = paging(c)
	if raw := c.Query("status"); raw != "" {
		status := domain.OrganizationStatus(raw)
		if !status.Valid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		filter.Status = &status
	}
	orgs, err := h.orgs.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OrganizationsFromDomain(orgs)})
}

// Get handles GET /api/organizations/:id.
func (h *OrganizationsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	org, err := h.orgs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OrganizationFromDomain(org)})
}

// Create handles POST /admin/api/organizations.
func (h *OrganizationsHandler) Create(c *fiber.Ctx) error {
	var req dto.OrganizationRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	org, err := h.orgs.Create(c.UserContext(), organizationInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.OrganizationFromDomain(org)})
}

// Update handles PATCH /admin/api/organizations/:id.
func (h *OrganizationsHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.OrganizationRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	org, err := h.orgs.Update(c.UserContext(), id, organizationInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OrganizationFromDomain(org)})
}

// Delete handles DELETE /admin/api/organizations/:id.
func (h *OrganizationsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.orgs.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func organizationInput(req dto.OrganizationRequest) service.OrganizationInput {
	return service.OrganizationInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Website: req.Website,
		EIN:     req.EIN,
		Status:  req.Status,
	}
}
