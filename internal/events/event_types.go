package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/donor-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDonorRegistered          EventType = "donor_registered"
	EventDonorUpdated             EventType = "donor_updated"
	EventTransactionRecorded      EventType = "transaction_recorded"
	EventTransactionStatusChanged EventType = "transaction_status_changed"
)

// AllEventTypes lists every type a dispatcher may carry.
var AllEventTypes = []EventType{
	EventDonorRegistered,
	EventDonorUpdated,
	EventTransactionRecorded,
	EventTransactionStatusChanged,
}

// Actor identifies who caused an event. Nil for external sources such as webhooks.
type Actor struct {
	ID   int64       `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     *Actor    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an id and timestamp on a payload.
func NewEvent(eventType EventType, actor *Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// DonorPayload carries the CRM-relevant donor fields.
type DonorPayload struct {
	DonorID        int64   `json:"donor_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone,omitempty"`
	OrganizationID *int64  `json:"organization_id,omitempty"`
	CRMContactID   *string `json:"crm_contact_id,omitempty"`
}

// DonorPayloadFrom copies donor fields into an event payload.
func DonorPayloadFrom(d *domain.Donor) DonorPayload {
	return DonorPayload{
		DonorID:        d.ID,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Email:          d.Email,
		Phone:          d.Phone,
		OrganizationID: d.OrganizationID,
		CRMContactID:   d.CRMContactID,
	}
}

// TransactionPayload payload.
type TransactionPayload struct {
	TransactionID  int64                    `json:"transaction_id"`
	DonorID        *int64                   `json:"donor_id,omitempty"`
	OrganizationID *int64                   `json:"organization_id,omitempty"`
	AmountCents    int64                    `json:"amount_cents"`
	Currency       string                   `json:"currency"`
	Status         domain.TransactionStatus `json:"status"`
	Source         domain.TransactionSource `json:"source"`
	Reference      string                   `json:"reference"`
	Recurring      bool                     `json:"recurring"`
}

// TransactionPayloadFrom copies transaction fields into an event payload.
func TransactionPayloadFrom(t *domain.Transaction) TransactionPayload {
	return TransactionPayload{
		TransactionID:  t.ID,
		DonorID:        t.DonorID,
		OrganizationID: t.OrganizationID,
		AmountCents:    t.AmountCents,
		Currency:       t.Currency,
		Status:         t.Status,
		Source:         t.Source,
		Reference:      t.Reference,
		Recurring:      t.Recurring,
	}
}

// TransactionStatusChangedPayload payload.
type TransactionStatusChangedPayload struct {
	TransactionPayload
	OldStatus domain.TransactionStatus `json:"old_status"`
}
