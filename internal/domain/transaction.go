package domain

import "time"

// TransactionStatus tracks payment outcome.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSucceeded TransactionStatus = "SUCCEEDED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusRefunded  TransactionStatus = "REFUNDED"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSucceeded, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// TransactionSource records where a payment came from.
type TransactionSource string

const (
	TransactionSourceStripe TransactionSource = "STRIPE"
	TransactionSourceManual TransactionSource = "MANUAL"
)

// Transaction is a single donation payment.
type Transaction struct {
	ID             int64
	DonorID        *int64
	OrganizationID *int64
	AmountCents    int64
	Currency       string
	Status         TransactionStatus
	Source         TransactionSource
	Reference      string
	Recurring      bool
	Note           *string
	CreatedAt      time.Time
}

// DashboardSummary aggregates headline numbers for the admin dashboard.
type DashboardSummary struct {
	Donors              int64
	Organizations       int64
	Transactions        int64
	SucceededTotalCents int64
}

// Valid reports whether s is a known source.
func (s TransactionSource) Valid() bool {
	return s == TransactionSourceStripe || s == TransactionSourceManual
}
