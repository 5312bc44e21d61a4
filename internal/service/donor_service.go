package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/events"
	"github.com/spec-kit/donor-service/internal/repository"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

// DonorService manages donor records.
type DonorService struct {
	donors     repository.DonorRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// UpdateDonorInput lists mutable donor fields. Nil leaves a field unchanged.
type UpdateDonorInput struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	OrganizationID *int64
}

// NewDonorService constructs the service.
func NewDonorService(donors repository.DonorRepository, dispatcher events.Dispatcher, logger *zap.Logger) *DonorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DonorService{donors: donors, dispatcher: dispatcher, logger: logger}
}

// List returns donors matching the filter.
func (s *DonorService) List(ctx context.Context, filter repository.DonorFilter) ([]domain.Donor, error) {
	return s.donors.List(ctx, filter)
}

// Get fetches one donor.
func (s *DonorService) Get(ctx context.Context, id int64) (*domain.Donor, error) {
	donor, err := s.donors.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "donor", id)
	}
	return donor, nil
}

// Update applies a partial update.
func (s *DonorService) Update(ctx context.Context, actor *events.Actor, id int64, in UpdateDonorInput) (*domain.Donor, error) {
	donor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		donor.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		donor.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		donor.Email = normalizeEmail(*in.Email)
	}
	if in.Phone != nil {
		donor.Phone = in.Phone
	}
	if in.OrganizationID != nil {
		donor.OrganizationID = in.OrganizationID
	}

	if err := s.donors.Update(ctx, donor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventDonorUpdated, actor, events.DonorPayloadFrom(donor)))
	return donor, nil
}

// Delete removes a donor. Their transactions are kept with the donor unset.
func (s *DonorService) Delete(ctx context.Context, id int64) error {
	if err := s.donors.Delete(ctx, id); err != nil {
		return notFound(err, "donor", id)
	}
	return nil
}

// AttachCRMContact stores the CRM contact id on the donor.
func (s *DonorService) AttachCRMContact(ctx context.Context, id int64, contactID string) error {
	donor, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if donor.CRMContactID != nil && *donor.CRMContactID == contactID {
		return nil
	}
	donor.CRMContactID = &contactID
	return s.donors.Update(ctx, donor)
}

func notFound(err error, resource string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}
