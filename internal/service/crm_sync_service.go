package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/events"
	"github.com/spec-kit/donor-service/internal/integrations/ghl"
)

// ContactSyncer is the CRM surface the sync needs.
type ContactSyncer interface {
	UpsertContact(ctx context.Context, contact ghl.Contact) (string, error)
	AddNote(ctx context.Context, contactID, body string) error
}

// CRMSyncService mirrors donors and their gifts into the CRM.
type CRMSyncService struct {
	crm    ContactSyncer
	donors *DonorService
	logger *zap.Logger
}

// NewCRMSyncService creates the service.
func NewCRMSyncService(crm ContactSyncer, donors *DonorService, logger *zap.Logger) *CRMSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CRMSyncService{crm: crm, donors: donors, logger: logger}
}

// EventTypes lists the events the sync consumes.
func (s *CRMSyncService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventDonorRegistered,
		events.EventDonorUpdated,
		events.EventTransactionRecorded,
		events.EventTransactionStatusChanged,
	}
}

// Handle applies one event to the CRM.
func (s *CRMSyncService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventDonorRegistered, events.EventDonorUpdated:
		payload, ok := event.Payload.(events.DonorPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}
		_, err := s.upsertDonor(ctx, payload.DonorID)
		return err

	case events.EventTransactionRecorded:
		payload, ok := event.Payload.(events.TransactionPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}
		return s.noteTransaction(ctx, payload, "")

	case events.EventTransactionStatusChanged:
		payload, ok := event.Payload.(events.TransactionStatusChangedPayload)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
		}
		if payload.Status != domain.TransactionStatusRefunded {
			return nil
		}
		return s.noteTransaction(ctx, payload.TransactionPayload, "Refunded")
	}
	return nil
}

func (s *CRMSyncService) upsertDonor(ctx context.Context, donorID int64) (string, error) {
	donor, err := s.donors.Get(ctx, donorID)
	if err != nil {
		return "", err
	}
	contact := ghl.Contact{
		FirstName: donor.FirstName,
		LastName:  donor.LastName,
		Email:     donor.Email,
		Tags:      []string{"donor"},
		Source:    "donor portal",
	}
	if donor.Phone != nil {
		contact.Phone = *donor.Phone
	}

	contactID, err := s.crm.UpsertContact(ctx, contact)
	if err != nil {
		return "", err
	}
	if err := s.donors.AttachCRMContact(ctx, donor.ID, contactID); err != nil {
		s.logger.Warn("store crm contact id", zap.Int64("donor_id", donor.ID), zap.Error(err))
	}
	s.logger.Debug("crm contact synced", zap.Int64("donor_id", donor.ID), zap.String("contact_id", contactID))
	return contactID, nil
}

func (s *CRMSyncService) noteTransaction(ctx context.Context, tx events.TransactionPayload, prefix string) error {
	if tx.DonorID == nil {
		return nil
	}
	donor, err := s.donors.Get(ctx, *tx.DonorID)
	if err != nil {
		return err
	}
	contactID := ""
	if donor.CRMContactID != nil {
		contactID = *donor.CRMContactID
	} else if contactID, err = s.upsertDonor(ctx, donor.ID); err != nil {
		return err
	}
	return s.crm.AddNote(ctx, contactID, transactionNote(tx, prefix))
}

func transactionNote(tx events.TransactionPayload, prefix string) string {
	kind := "Donation"
	if tx.Recurring {
		kind = "Recurring donation"
	}
	note := fmt.Sprintf("%s of %d.%02d %s (%s, ref %s)", kind, tx.AmountCents/100, tx.AmountCents%100,
		strings.ToUpper(tx.Currency), tx.Source, tx.Reference)
	if prefix != "" {
		note = prefix + ": " + note
	}
	return note
}
