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

// TransactionsHandler exposes donation records.
type TransactionsHandler struct {
	txs *service.TransactionService
}

// NewTransactionsHandler constructs handler.
func NewTransactionsHandler(txs *service.TransactionService) *TransactionsHandler {
	return &TransactionsHandler{txs: txs}
}

// List handles GET /admin/api/transactions.
func (h *TransactionsHandler) List(c *fiber.Ctx) error {
	var (
		filter repository.TransactionFilter
		err    error
	)
	if filter.DonorID, err = queryID(c, "donor_id"); err != nil {
		return err
	}
	if filter.OrganizationID, err = queryID(c, "organization_id"); err != nil {
		return err
	}
	if filter.Since, err = queryTime(c, "since"); err != nil {
		return err
	}
	if filter.Until, err = queryTime(c, "until"); err != nil {
		return err
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.TransactionStatus(raw)
		if !status.Valid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		filter.Status = &status
	}
	filter.Limit, filter.Offset = paging(c)

	txs, err := h.txs.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TransactionsFromDomain(txs)})
}

// Get handles GET /admin/api/transactions/:id.
func (h *TransactionsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	tx, err := h.txs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TransactionFromDomain(tx)})
}

// Create handles POST /admin/api/transactions for offline gifts.
func (h *TransactionsHandler) Create(c *fiber.Ctx) error {
	var req dto.TransactionCreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	tx, err := h.txs.Record(c.UserContext(), actorOf(c), service.RecordTransactionInput{
		DonorID:        req.DonorID,
		OrganizationID: req.OrganizationID,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Status:         req.Status,
		Source:         domain.TransactionSourceManual,
		Reference:      req.Reference,
		Recurring:      req.Recurring,
		Note:           req.Note,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TransactionFromDomain(tx)})
}

// Mine handles GET /api/donors/me/transactions.
func (h *TransactionsHandler) Mine(c *fiber.Ctx) error {
	claims, err := principal(c)
	if err != nil {
		return err
	}
	limit, offset := paging(c)
	txs, err := h.txs.ListForPrincipal(c.UserContext(), claims.Role, claims.UserID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TransactionsFromDomain(txs)})
}
