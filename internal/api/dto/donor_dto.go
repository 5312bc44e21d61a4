package dto

import (
	"time"

	"github.com/spec-kit/donor-service/internal/domain"
)

// DonorUpdateRequest carries optional donor fields.
type DonorUpdateRequest struct {
	FirstName      *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName       *string `json:"last_name" validate:"omitempty,max=100"`
	Email          *string `json:"email" validate:"omitempty,email,max=254"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	OrganizationID *int64  `json:"organization_id" validate:"omitempty,gt=0"`
}

// DonorResponse is the public view of a donor. The password hash never leaves the service.
type DonorResponse struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone,omitempty"`
	OrganizationID *int64    `json:"organization_id,omitempty"`
	CRMContactID   *string   `json:"crm_contact_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DonorFromDomain converts a donor for output.
func DonorFromDomain(d *domain.Donor) DonorResponse {
	return DonorResponse{
		ID:             d.ID,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Email:          d.Email,
		Phone:          d.Phone,
		OrganizationID: d.OrganizationID,
		CRMContactID:   d.CRMContactID,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// DonorsFromDomain converts a slice.
func DonorsFromDomain(list []domain.Donor) []DonorResponse {
	out := make([]DonorResponse, 0, len(list))
	for i := range list {
		out = append(out, DonorFromDomain(&list[i]))
	}
	return out
}
