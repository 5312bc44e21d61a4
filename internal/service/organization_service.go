package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/donor-service/internal/domain"
	"github.com/spec-kit/donor-service/internal/repository"
	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

// OrganizationService manages nonprofit organizations.
type OrganizationService struct {
	orgs repository.OrganizationRepository
}

// OrganizationInput carries create and update fields. Nil leaves a field
// unchanged on update.
type OrganizationInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Website *string
	EIN     *string
	Status  *domain.OrganizationStatus
}

// NewOrganizationService constructs the service.
func NewOrganizationService(orgs repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{orgs: orgs}
}

// Create stores a new organization. Status defaults to ACTIVE.
func (s *OrganizationService) Create(ctx context.Context, in OrganizationInput) (*domain.Organization, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	org := &domain.Organization{Status: domain.OrganizationStatusActive}
	if err := applyOrganization(org, in); err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, duplicateEIN(err)
	}
	return org, nil
}

// Get fetches one organization.
func (s *OrganizationService) Get(ctx context.Context, id int64) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "organization", id)
	}
	return org, nil
}

// List returns organizations matching the filter.
func (s *OrganizationService) List(ctx context.Context, filter repository.OrganizationFilter) ([]domain.Organization, error) {
	return s.orgs.List(ctx, filter)
}

// Update applies a partial update.
func (s *OrganizationService) Update(ctx context.Context, id int64, in OrganizationInput) (*domain.Organization, error) {
	org, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyOrganization(org, in); err != nil {
		return nil, err
	}
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, duplicateEIN(err)
	}
	return org, nil
}

// Delete removes an organization.
func (s *OrganizationService) Delete(ctx context.Context, id int64) error {
	if err := s.orgs.Delete(ctx, id); err != nil {
		return notFound(err, "organization", id)
	}
	return nil
}

func applyOrganization(org *domain.Organization, in OrganizationInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperrors.NewValidationError("name must not be empty", nil)
		}
		org.Name = name
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": *in.Status})
		}
		org.Status = *in.Status
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		org.Email = &email
	}
	if in.Phone != nil {
		org.Phone = in.Phone
	}
	if in.Website != nil {
		org.Website = in.Website
	}
	if in.EIN != nil {
		org.EIN = in.EIN
	}
	return nil
}

func duplicateEIN(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("organization with this EIN already exists", nil)
	}
	return err
}
