package domain

import "time"

// OrganizationStatus represents lifecycle states for an organization.
type OrganizationStatus string

const (
	OrganizationStatusActive   OrganizationStatus = "ACTIVE"
	OrganizationStatusInactive OrganizationStatus = "INACTIVE"
)

// Organization is a nonprofit receiving donations.
type Organization struct {
	ID        int64
	Name      string
	Email     *string
	Phone     *string
	Website   *string
	EIN       *string
	Status    OrganizationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Valid reports whether s is a known status.
func (s OrganizationStatus) Valid() bool {
	return s == OrganizationStatusActive || s == OrganizationStatusInactive
}
