package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/donor-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestOrganizationLifecycle(t *testing.T) {
	svc := NewOrganizationService(newFakeOrgRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, OrganizationInput{})
	assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))

	org, err := svc.Create(ctx, OrganizationInput{Name: strPtr(" Food Bank "), EIN: strPtr("12-3456789"), Email: strPtr("Info@FoodBank.org")})
	require.NoError(t, err)
	assert.Equal(t, "Food Bank", org.Name)
	assert.Equal(t, domain.OrganizationStatusActive, org.Status)
	assert.Equal(t, "info@foodbank.org", *org.Email)

	_, err = svc.Create(ctx, OrganizationInput{Name: strPtr("Copy"), EIN: strPtr("12-3456789")})
	assert.Equal(t, http.StatusConflict, domainStatus(t, err))

	inactive := domain.OrganizationStatusInactive
	updated, err := svc.Update(ctx, org.ID, OrganizationInput{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, domain.OrganizationStatusInactive, updated.Status)
	assert.Equal(t, "Food Bank", updated.Name)

	bogus := domain.OrganizationStatus("ARCHIVED")
	_, err = svc.Update(ctx, org.ID, OrganizationInput{Status: &bogus})
	assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))

	require.NoError(t, svc.Delete(ctx, org.ID))
	_, err = svc.Get(ctx, org.ID)
	assert.Equal(t, http.StatusNotFound, domainStatus(t, err))
	assert.Equal(t, http.StatusNotFound, domainStatus(t, svc.Delete(ctx, org.ID)))
}
