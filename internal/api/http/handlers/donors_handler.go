package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-service/internal/api/dto"
	"github.com/spec-kit/donor-service/internal/repository"
	"github.com/spec-kit/donor-service/internal/service"
)

// DonorsHandler exposes staff donor management.
type DonorsHandler struct {
	donors *service.DonorService
}

// NewDonorsHandler constructs handler.
func NewDonorsHandler(donors *service.DonorService) *DonorsHandler {
	return &DonorsHandler{donors: donors}
}

// List handles GET /admin/api/donors.
func (h *DonorsHandler) List(c *fiber.Ctx) error {
	orgID, err := queryID(c, "organization_id")
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	donors, err := h.donors.List(c.UserContext(), repository.DonorFilter{
		Search:         strings.TrimSpace(c.Query("search")),
		OrganizationID: orgID,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DonorsFromDomain(donors)})
}

// Get handles GET /admin/api/donors/:id.
func (h *DonorsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	donor, err := h.donors.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DonorFromDomain(donor)})
}

// Update handles PATCH /admin/api/donors/:id.
func (h *DonorsHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.DonorUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	donor, err := h.donors.Update(c.UserContext(), actorOf(c), id, service.UpdateDonorInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DonorFromDomain(donor)})
}

// Delete handles DELETE /admin/api/donors/:id.
func (h *DonorsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.donors.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
