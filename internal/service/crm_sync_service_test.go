package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/events"
	"github.com/spec-kit/donor-service/internal/integrations/ghl"
)

type fakeCRM struct {
	mu       sync.Mutex
	contacts []ghl.Contact
	notes    map[string][]string
}

func (c *fakeCRM) UpsertContact(_ context.Context, contact ghl.Contact) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contacts = append(c.contacts, contact)
	return "contact-" + contact.Email, nil
}

func (c *fakeCRM) AddNote(_ context.Context, contactID, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notes == nil {
		c.notes = map[string][]string{}
	}
	c.notes[contactID] = append(c.notes[contactID], body)
	return nil
}

func TestCRMSyncDonorRegistered(t *testing.T) {
	repo := newFakeDonorRepo()
	donors := NewDonorService(repo, nil, nil)
	crm := &fakeCRM{}
	svc := NewCRMSyncService(crm, donors, nil)
	ctx := context.Background()

	donor := &domain.Donor{FirstName: "Ada", LastName: "L", Email: "ada@b.com", Phone: strPtr("+1555")}
	require.NoError(t, repo.Create(ctx, donor))

	require.NoError(t, svc.Handle(ctx, events.NewEvent(events.EventDonorRegistered, nil, events.DonorPayloadFrom(donor))))

	require.Len(t, crm.contacts, 1)
	assert.Equal(t, "+1555", crm.contacts[0].Phone)
	assert.Equal(t, []string{"donor"}, crm.contacts[0].Tags)

	stored, err := donors.Get(ctx, donor.ID)
	require.NoError(t, err)
	assert.Equal(t, "contact-ada@b.com", *stored.CRMContactID)
}

func TestCRMSyncTransactionNotes(t *testing.T) {
	repo := newFakeDonorRepo()
	donors := NewDonorService(repo, nil, nil)
	crm := &fakeCRM{}
	svc := NewCRMSyncService(crm, donors, nil)
	ctx := context.Background()

	donor := &domain.Donor{FirstName: "Ada", Email: "ada@b.com"}
	require.NoError(t, repo.Create(ctx, donor))

	tx := events.TransactionPayload{
		TransactionID: 1,
		DonorID:       &donor.ID,
		AmountCents:   2550,
		Currency:      "usd",
		Status:        domain.TransactionStatusSucceeded,
		Source:        domain.TransactionSourceStripe,
		Reference:     "pi_1",
	}
	require.NoError(t, svc.Handle(ctx, events.NewEvent(events.EventTransactionRecorded, nil, tx)))

	refunded := tx
	refunded.Status = domain.TransactionStatusRefunded
	require.NoError(t, svc.Handle(ctx, events.NewEvent(events.EventTransactionStatusChanged, nil,
		events.TransactionStatusChangedPayload{TransactionPayload: refunded, OldStatus: domain.TransactionStatusSucceeded})))

	notes := crm.notes["contact-ada@b.com"]
	require.Len(t, notes, 2)
	assert.Equal(t, "Donation of 25.50 USD (STRIPE, ref pi_1)", notes[0])
	assert.Equal(t, "Refunded: Donation of 25.50 USD (STRIPE, ref pi_1)", notes[1])
	assert.Len(t, crm.contacts, 1, "contact is created once and reused")
}

func TestCRMSyncIgnoresAnonymousTransactions(t *testing.T) {
	crm := &fakeCRM{}
	svc := NewCRMSyncService(crm, NewDonorService(newFakeDonorRepo(), nil, nil), nil)

	err := svc.Handle(context.Background(), events.NewEvent(events.EventTransactionRecorded, nil, events.TransactionPayload{AmountCents: 100}))
	require.NoError(t, err)
	assert.Empty(t, crm.contacts)
	assert.Error(t, svc.Handle(context.Background(), events.NewEvent(events.EventDonorRegistered, nil, "bogus")))
}
