package dto

import (
	"time"

	"github.com/spec-kit/donor-service/internal/domain"
)

// DonorRegisterRequest payload for new donors.
type DonorRegisterRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       string  `json:"last_name" validate:"max=100"`
	Email          string  `json:"email" validate:"required,email,max=254"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	Password       string  `json:"password" validate:"required,min=8,max=72"`
	OrganizationID *int64  `json:"organization_id" validate:"omitempty,gt=0"`
}

// LoginRequest payload for donor and admin login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=72"`
}

// ChangePasswordRequest payload for password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// AdminCreateRequest payload for provisioning staff accounts.
type AdminCreateRequest struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email,max=254"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     domain.Role `json:"role" validate:"required,oneof=MANAGER ADMIN SUPERADMIN"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminResponse is the public view of a staff account.
type AdminResponse struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// AdminFromDomain converts an admin for output.
func AdminFromDomain(a *domain.AdminUser) AdminResponse {
	return AdminResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
	}
}

// MeResponse describes the authenticated principal.
type MeResponse struct {
	ID    int64          `json:"id"`
	Email string         `json:"email"`
	Role  domain.Role    `json:"role"`
	Donor *DonorResponse `json:"donor,omitempty"`
}
