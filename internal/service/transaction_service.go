package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/events"
	"github.com/spec-kit/donor-service/internal/repository"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

// TransactionService records and queries donations.
type TransactionService struct {
	txs        repository.TransactionRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// RecordTransactionInput carries a new payment.
type RecordTransactionInput struct {
	DonorID        *int64
	OrganizationID *int64
	AmountCents    int64
	Currency       string
	Status         domain.TransactionStatus
	Source         domain.TransactionSource
	Reference      string
	Recurring      bool
	Note           *string
}

// NewTransactionService constructs the service.
func NewTransactionService(txs repository.TransactionRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{txs: txs, dispatcher: dispatcher, logger: logger}
}

// Record stores a payment. Manual entries without a reference get a generated one.
func (s *TransactionService) Record(ctx context.Context, actor *events.Actor, in RecordTransactionInput) (*domain.Transaction, error) {
	tx, created, err := s.record(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, apperrors.NewConflict("transaction reference already recorded", map[string]any{"reference": in.Reference})
	}
	return tx, nil
}

// RecordExternal stores a payment reported by a payment provider. A replayed
// reference is not an error; created is false and tx is nil.
func (s *TransactionService) RecordExternal(ctx context.Context, in RecordTransactionInput) (tx *domain.Transaction, created bool, err error) {
	if strings.TrimSpace(in.Reference) == "" {
		return nil, false, apperrors.NewValidationError("reference is required", nil)
	}
	return s.record(ctx, nil, in)
}

func (s *TransactionService) record(ctx context.Context, actor *events.Actor, in RecordTransactionInput) (*domain.Transaction, bool, error) {
	if in.AmountCents <= 0 {
		return nil, false, apperrors.NewValidationError("amount must be positive", map[string]any{"amount_cents": in.AmountCents})
	}
	if in.Status == "" {
		in.Status = domain.TransactionStatusSucceeded
	}
	if !in.Status.Valid() {
		return nil, false, apperrors.NewValidationError("unknown status", map[string]any{"status": in.Status})
	}
	if in.Source == "" {
		in.Source = domain.TransactionSourceManual
	}
	if !in.Source.Valid() {
		return nil, false, apperrors.NewValidationError("unknown source", map[string]any{"source": in.Source})
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		reference = "manual_" + uuid.NewString()
	}

	tx := &domain.Transaction{
		DonorID:        in.DonorID,
		OrganizationID: in.OrganizationID,
		AmountCents:    in.AmountCents,
		Currency:       currency,
		Status:         in.Status,
		Source:         in.Source,
		Reference:      reference,
		Recurring:      in.Recurring,
		Note:           in.Note,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, false, nil
		}
		return nil, false, err
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventTransactionRecorded, actor, events.TransactionPayloadFrom(tx)))
	return tx, true, nil
}

// UpdateStatus moves a transaction identified by its external reference to a new status.
func (s *TransactionService) UpdateStatus(ctx context.Context, reference string, status domain.TransactionStatus) (*domain.Transaction, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	tx, previous, err := s.txs.UpdateStatusByReference(ctx, reference, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("transaction", map[string]any{"reference": reference})
		}
		return nil, err
	}
	if previous != status {
		publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventTransactionStatusChanged, nil,
			events.TransactionStatusChangedPayload{TransactionPayload: events.TransactionPayloadFrom(tx), OldStatus: previous}))
	}
	return tx, nil
}

// Get fetches one transaction.
func (s *TransactionService) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	tx, err := s.txs.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "transaction", id)
	}
	return tx, nil
}

// List returns transactions matching the filter.
func (s *TransactionService) List(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	return s.txs.List(ctx, filter)
}

// ListForDonor returns a donor's own transactions regardless of other filter fields.
func (s *TransactionService) ListForDonor(ctx context.Context, donorID int64, limit, offset int) ([]domain.Transaction, error) {
	return s.txs.List(ctx, repository.TransactionFilter{DonorID: &donorID, Limit: limit, Offset: offset})
}

// ListForPrincipal returns the caller's own transactions. Only donor accounts
// own payments, so staff principals get an empty page.
func (s *TransactionService) ListForPrincipal(ctx context.Context, role domain.Role, userID int64, limit, offset int) ([]domain.Transaction, error) {
	if role != domain.RoleDonor {
		return []domain.Transaction{}, nil
	}
	return s.ListForDonor(ctx, userID, limit, offset)
}

// Dashboard returns headline counts for the admin dashboard.
func (s *TransactionService) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	return s.txs.Summary(ctx)
}
