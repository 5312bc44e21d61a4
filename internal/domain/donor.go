package domain

import "time"

// Donor is an individual giving to one or more organizations.
type Donor struct {
	ID               int64
	FirstName        string
	LastName         string
	Email            string
	Phone            *string
	PasswordHash     string
	OrganizationID   *int64
	StripeCustomerID *string
	CRMContactID     *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName joins first and last name.
func (d Donor) FullName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}
