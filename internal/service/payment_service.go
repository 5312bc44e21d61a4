package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/spec-kit/donor-service/internal/config"
	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/repository"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

const processedEventTTL = 72 * time.Hour

// Stripe event types the service reacts to.
const (
	eventCheckoutSessionCompleted = "checkout.session.completed"
	eventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	eventChargeRefunded           = "charge.refunded"
)

// WebhookResult summarizes how a delivery was handled.
type WebhookResult struct {
	EventID   string `json:"event_id"`
	Type      string `json:"type"`
	Handled   bool   `json:"handled"`
	Duplicate bool   `json:"duplicate"`
}

// PaymentService turns Stripe webhook deliveries into transactions.
type PaymentService struct {
	secret    string
	tolerance time.Duration
	donors    repository.DonorRepository
	dedupe    repository.EventDedupeRepository
	txs       *TransactionService
	logger    *zap.Logger
}

// PaymentDependencies encapsulates collaborators for the payment service.
type PaymentDependencies struct {
	DonorRepo    repository.DonorRepository
	DedupeRepo   repository.EventDedupeRepository
	Transactions *TransactionService
	Logger       *zap.Logger
}

// NewPaymentService builds the service. DedupeRepo may be nil; the unique
// transaction reference still prevents double recording.
func NewPaymentService(cfg config.StripeConfig, deps PaymentDependencies) *PaymentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tolerance := time.Duration(cfg.ToleranceSeconds) * time.Second
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &PaymentService{
		secret:    cfg.WebhookSecret,
		tolerance: tolerance,
		donors:    deps.DonorRepo,
		dedupe:    deps.DedupeRepo,
		txs:       deps.Transactions,
		logger:    logger,
	}
}

// HandleStripeWebhook verifies, de-duplicates and applies one delivery.
func (s *PaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	if s.secret == "" {
		return WebhookResult{}, apperrors.NewServiceUnavailable("stripe webhooks are not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.secret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			s.logger.Warn("stripe signature rejected", zap.Error(err))
			return WebhookResult{}, apperrors.NewValidationError("invalid webhook signature", nil)
		}
		return WebhookResult{}, apperrors.NewValidationError("invalid webhook payload", nil)
	}
	if event.ID == "" || event.Type == "" || event.Data == nil {
		return WebhookResult{}, apperrors.NewValidationError("invalid webhook payload", nil)
	}
	result := WebhookResult{EventID: event.ID, Type: string(event.Type)}

	if s.dedupe != nil {
		first, err := s.dedupe.MarkProcessed(ctx, event.ID, processedEventTTL)
		if err != nil {
			s.logger.Warn("stripe dedupe unavailable", zap.String("event_id", event.ID), zap.Error(err))
		} else if !first {
			result.Duplicate = true
			return result, nil
		}
	}

	handled, err := s.apply(ctx, &event)
	if err != nil {
		if s.dedupe != nil {
			if ferr := s.dedupe.Forget(ctx, event.ID); ferr != nil {
				s.logger.Warn("stripe dedupe forget failed", zap.String("event_id", event.ID), zap.Error(ferr))
			}
		}
		return result, err
	}
	result.Handled = handled
	s.logger.Info("stripe event processed",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Bool("handled", handled))
	return result, nil
}

func (s *PaymentService) apply(ctx context.Context, event *stripe.Event) (bool, error) {
	switch string(event.Type) {
	case eventCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return false, apperrors.NewValidationError("invalid checkout session", nil)
		}
		if session.PaymentStatus != "" && session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return false, nil
		}
		email := ""
		if session.CustomerDetails != nil {
			email = session.CustomerDetails.Email
		}
		donorID := s.resolveDonor(ctx, session.Metadata, session.ClientReferenceID, customerID(session.Customer), email)
		return s.record(ctx, stripeReference(session.PaymentIntent, session.ID), session.AmountTotal, string(session.Currency),
			donorID, metadataInt(session.Metadata, "organization_id"), session.Mode == stripe.CheckoutSessionModeSubscription)

	case eventInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return false, apperrors.NewValidationError("invalid invoice", nil)
		}
		donorID := s.resolveDonor(ctx, invoice.Metadata, "", customerID(invoice.Customer), invoice.CustomerEmail)
		return s.record(ctx, stripeReference(invoice.PaymentIntent, invoice.ID), invoice.AmountPaid, string(invoice.Currency),
			donorID, metadataInt(invoice.Metadata, "organization_id"), invoice.Subscription != nil && invoice.Subscription.ID != "")

	case eventChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return false, apperrors.NewValidationError("invalid charge", nil)
		}
		if !charge.Refunded || charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			return false, nil
		}
		reference := charge.PaymentIntent.ID
		if _, err := s.txs.UpdateStatus(ctx, reference, domain.TransactionStatusRefunded); err != nil {
			if apperrors.HasStatus(err, http.StatusNotFound) {
				s.logger.Info("refund for unknown payment", zap.String("payment_intent", reference))
				return false, nil
			}
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *PaymentService) record(ctx context.Context, reference string, amount int64, currency string, donorID, orgID *int64, recurring bool) (bool, error) {
	if amount <= 0 {
		return false, nil
	}
	_, created, err := s.txs.RecordExternal(ctx, RecordTransactionInput{
		DonorID:        donorID,
		OrganizationID: orgID,
		AmountCents:    amount,
		Currency:       currency,
		Status:         domain.TransactionStatusSucceeded,
		Source:         domain.TransactionSourceStripe,
		Reference:      reference,
		Recurring:      recurring,
	})
	return created, err
}

// resolveDonor matches a payment to a donor by explicit id, Stripe customer or email.
func (s *PaymentService) resolveDonor(ctx context.Context, metadata map[string]string, clientRef, customer, email string) *int64 {
	for _, candidate := range []*int64{metadataInt(metadata, "donor_id"), parseID(clientRef)} {
		if candidate == nil {
			continue
		}
		if _, err := s.donors.GetByID(ctx, *candidate); err == nil {
			return candidate
		}
	}

	if customer != "" {
		if donor, err := s.donors.GetByStripeCustomerID(ctx, customer); err == nil {
			return &donor.ID
		} else if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("lookup donor by stripe customer", zap.Error(err))
		}
	}

	if email = normalizeEmail(email); email != "" {
		donor, err := s.donors.GetByEmail(ctx, email)
		if err != nil {
			return nil
		}
		if customer != "" && donor.StripeCustomerID == nil {
			donor.StripeCustomerID = &customer
			if err := s.donors.Update(ctx, donor); err != nil {
				s.logger.Warn("link stripe customer", zap.Int64("donor_id", donor.ID), zap.Error(err))
			}
		}
		return &donor.ID
	}
	return nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// stripeReference prefers the payment intent so refunds, which only carry the
// intent, find the recorded transaction.
func stripeReference(paymentIntent *stripe.PaymentIntent, fallback string) string {
	if paymentIntent != nil && paymentIntent.ID != "" {
		return paymentIntent.ID
	}
	return fallback
}

func metadataInt(metadata map[string]string, key string) *int64 {
	if metadata == nil {
		return nil
	}
	return parseID(metadata[key])
}

func parseID(raw string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}
