package dto

import (
	"time"

	"github.com/spec-kit/donor-service/internal/domain"
)

// OrganizationRequest is used for create (name required) and update.
type OrganizationRequest struct {
	Name    *string                    `json:"name" validate:"omitempty,min=1,max=200"`
	Email   *string                    `json:"email" validate:"omitempty,email"`
	Phone   *string                    `json:"phone" validate:"omitempty,max=32"`
	Website *string                    `json:"website" validate:"omitempty,url"`
	EIN     *string                    `json:"ein" validate:"omitempty,max=20"`
	Status  *domain.OrganizationStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// OrganizationResponse is the public view of an organization.
type OrganizationResponse struct {
	ID        int64                     `json:"id"`
	Name      string                    `json:"name"`
	Email     *string                   `json:"email,omitempty"`
	Phone     *string                   `json:"phone,omitempty"`
	Website   *string                   `json:"website,omitempty"`
	EIN       *string                   `json:"ein,omitempty"`
	Status    domain.OrganizationStatus `json:"status"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// OrganizationFromDomain converts an organization for output.
func OrganizationFromDomain(o *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		Email:     o.Email,
		Phone:     o.Phone,
		Website:   o.Website,
		EIN:       o.EIN,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// OrganizationsFromDomain converts a slice.
func OrganizationsFromDomain(list []domain.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, 0, len(list))
	for i := range list {
		out = append(out, OrganizationFromDomain(&list[i]))
	}
	return out
}
