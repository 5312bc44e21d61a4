package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/spec-kit/donor-service/internal/config"
	"github.com/spec-kit/donor-service/internal/domain"
)

const webhookSecret = "whsec_test"

type paymentFixture struct {
	svc    *PaymentService
	donors *fakeDonorRepo
	txs    *fakeTransactionRepo
	dedupe *fakeDedupeRepo
}

func newPaymentFixture(t *testing.T, secret string) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		donors: newFakeDonorRepo(),
		txs:    &fakeTransactionRepo{},
		dedupe: newFakeDedupeRepo(),
	}
	f.svc = NewPaymentService(config.StripeConfig{WebhookSecret: secret, ToleranceSeconds: 300}, PaymentDependencies{
		DonorRepo:    f.donors,
		DedupeRepo:   f.dedupe,
		Transactions: NewTransactionService(f.txs, nil, nil),
	})
	return f
}

func signedHeader(body []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    secret,
		Timestamp: at,
	}).Header
}

func (f *paymentFixture) deliver(payload string) (WebhookResult, error) {
	body := []byte(payload)
	return f.svc.HandleStripeWebhook(context.Background(), body, signedHeader(body, webhookSecret, time.Now()))
}

func checkoutPayload(eventID, email string) string {
	return fmt.Sprintf(`{"id":%q,"type":"checkout.session.completed","data":{"object":{
		"id":"cs_1","amount_total":2500,"currency":"USD","customer":"cus_1","mode":"payment",
		"payment_intent":"pi_1","payment_status":"paid","customer_details":{"email":%q},
		"metadata":{"organization_id":"7"}}}}`, eventID, email)
}

func TestCheckoutCompletedRecordsTransaction(t *testing.T) {
	f := newPaymentFixture(t, webhookSecret)
	donor := &domain.Donor{FirstName: "A", Email: "a@b.com"}
	require.NoError(t, f.donors.Create(context.Background(), donor))

	res, err := f.deliver(checkoutPayload("evt_1", "A@b.com"))
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.False(t, res.Duplicate)

	txs := f.txs.all()
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, "pi_1", tx.Reference)
	assert.Equal(t, int64(2500), tx.AmountCents)
	assert.Equal(t, "usd", tx.Currency)
	assert.Equal(t, domain.TransactionSourceStripe, tx.Source)
	assert.Equal(t, domain.TransactionStatusSucceeded, tx.Status)
	require.NotNil(t, tx.DonorID)
	assert.Equal(t, donor.ID, *tx.DonorID)
	require.NotNil(t, tx.OrganizationID)
	assert.Equal(t, int64(7), *tx.OrganizationID)

	linked, err := f.donors.GetByID(context.Background(), donor.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.StripeCustomerID)
	assert.Equal(t, "cus_1", *linked.StripeCustomerID)
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	f := newPaymentFixture(t, webhookSecret)

	_, err := f.deliver(checkoutPayload("evt_1", ""))
	require.NoError(t, err)
	res, err := f.deliver(checkoutPayload("evt_1", ""))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)

	// a new event id for the same payment is absorbed by the reference
	res, err = f.deliver(checkoutPayload("evt_2", ""))
	require.NoError(t, err)
	assert.False(t, res.Handled)
	assert.Len(t, f.txs.all(), 1)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newPaymentFixture(t, webhookSecret)
	body := []byte(checkoutPayload("evt_1", ""))

	_, err := f.svc.HandleStripeWebhook(context.Background(), body, signedHeader(body, "whsec_other", time.Now()))
	assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))

	_, err = f.svc.HandleStripeWebhook(context.Background(), body, signedHeader(body, webhookSecret, time.Now().Add(-10*time.Minute)))
	assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))
	assert.Empty(t, f.txs.all())

	_, err = f.svc.HandleStripeWebhook(context.Background(), body, "")
	assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))
	_, err = f.svc.HandleStripeWebhook(context.Background(), body, "t=abc")
	assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	f := newPaymentFixture(t, webhookSecret)

	_, err := f.deliver(`{"id":"evt_1"`)
	assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))

	_, err = f.deliver(`{"id":"evt_1","type":"checkout.session.completed"}`)
	assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))
}

func TestWebhookNotConfigured(t *testing.T) {
	f := newPaymentFixture(t, "")
	_, err := f.deliver(checkoutPayload("evt_1", ""))
	assert.Equal(t, http.StatusServiceUnavailable, domainStatus(t, err))
}

func TestInvoicePaymentIsRecurring(t *testing.T) {
	f := newPaymentFixture(t, webhookSecret)
	customer := "cus_9"
	donor := &domain.Donor{FirstName: "R", Email: "r@b.com", StripeCustomerID: &customer}
	require.NoError(t, f.donors.Create(context.Background(), donor))

	res, err := f.deliver(`{"id":"evt_inv","type":"invoice.payment_succeeded","data":{"object":{
		"id":"in_1","amount_paid":1000,"currency":"eur","customer":"cus_9","subscription":"sub_1","payment_intent":"pi_9"}}}`)
	require.NoError(t, err)
	assert.True(t, res.Handled)

	txs := f.txs.all()
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Recurring)
	assert.Equal(t, donor.ID, *txs[0].DonorID)
}

func TestChargeRefunded(t *testing.T) {
	f := newPaymentFixture(t, webhookSecret)
	_, err := f.deliver(checkoutPayload("evt_1", ""))
	require.NoError(t, err)

	res, err := f.deliver(`{"id":"evt_r","type":"charge.refunded","data":{"object":{"id":"ch_1","payment_intent":"pi_1","refunded":true}}}`)
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.Equal(t, domain.TransactionStatusRefunded, f.txs.all()[0].Status)

	res, err = f.deliver(`{"id":"evt_r2","type":"charge.refunded","data":{"object":{"id":"ch_2","payment_intent":"pi_unknown","refunded":true}}}`)
	require.NoError(t, err)
	assert.False(t, res.Handled)
}

func TestUnhandledEventTypeIsAcknowledged(t *testing.T) {
	f := newPaymentFixture(t, webhookSecret)
	res, err := f.deliver(`{"id":"evt_x","type":"customer.created","data":{"object":{}}}`)
	require.NoError(t, err)
	assert.False(t, res.Handled)
	assert.Equal(t, "customer.created", res.Type)
}
