package dto

import (
	"time"

	"github.com/spec-kit/donor-service/internal/domain"
)

// TransactionCreateRequest records a manual (offline) donation.
type TransactionCreateRequest struct {
	DonorID        *int64                   `json:"donor_id" validate:"omitempty,gt=0"`
	OrganizationID *int64                   `json:"organization_id" validate:"omitempty,gt=0"`
	AmountCents    int64                    `json:"amount_cents" validate:"required,gt=0"`
	Currency       string                   `json:"currency" validate:"omitempty,len=3"`
	Status         domain.TransactionStatus `json:"status" validate:"omitempty,oneof=PENDING SUCCEEDED FAILED REFUNDED"`
	Reference      string                   `json:"reference" validate:"omitempty,max=255"`
	Recurring      bool                     `json:"recurring"`
	Note           *string                  `json:"note" validate:"omitempty,max=1000"`
}

// TransactionResponse is the public view of a transaction.
type TransactionResponse struct {
	ID             int64                    `json:"id"`
	DonorID        *int64                   `json:"donor_id,omitempty"`
	OrganizationID *int64                   `json:"organization_id,omitempty"`
	AmountCents    int64                    `json:"amount_cents"`
	Currency       string                   `json:"currency"`
	Status         domain.TransactionStatus `json:"status"`
	Source         domain.TransactionSource `json:"source"`
	Reference      string                   `json:"reference"`
	Recurring      bool                     `json:"recurring"`
	Note           *string                  `json:"note,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

// TransactionFromDomain converts a transaction for output.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		DonorID:        t.DonorID,
		OrganizationID: t.OrganizationID,
		AmountCents:    t.AmountCents,
		Currency:       t.Currency,
		Status:         t.Status,
		Source:         t.Source,
		Reference:      t.Reference,
		Recurring:      t.Recurring,
		Note:           t.Note,
		CreatedAt:      t.CreatedAt,
	}
}

// TransactionsFromDomain converts a slice.
func TransactionsFromDomain(list []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(list))
	for i := range list {
		out = append(out, TransactionFromDomain(&list[i]))
	}
	return out
}

// DashboardResponse carries headline numbers.
type DashboardResponse struct {
	Donors              int64 `json:"donors"`
	Organizations       int64 `json:"organizations"`
	Transactions        int64 `json:"transactions"`
	SucceededTotalCents int64 `json:"succeeded_total_cents"`
}
