package domain

import "time"

// AdminUser is a staff account managing the platform.
type AdminUser struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
