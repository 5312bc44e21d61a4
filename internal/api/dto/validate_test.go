package dto

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/donor-service/pkg/util"
)

func TestValidateLoginRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    LoginRequest
		fields []string
	}{
		{name: "valid", req: LoginRequest{Email: "a@b.com", Password: "12345678"}},
		{name: "bad email", req: LoginRequest{Email: "not-an-email", Password: "12345678"}, fields: []string{"email"}},
		{name: "short password", req: LoginRequest{Email: "a@b.com", Password: "1234567"}, fields: []string{"password"}},
		{name: "empty", req: LoginRequest{}, fields: []string{"email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var de *apperrors.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
			assert.Equal(t, "VALIDATION_FAILED", de.Code)
			for _, f := range tt.fields {
				assert.Contains(t, de.Details, f)
			}
			assert.Len(t, de.Details, len(tt.fields))
		})
	}
}

func TestValidateAdminRole(t *testing.T) {
	req := AdminCreateRequest{Name: "M", Email: "m@org.org", Password: "long enough", Role: "DONOR"}
	err := Validate(req)
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "must be one of MANAGER ADMIN SUPERADMIN", de.Details["role"])

	req.Role = "ADMIN"
	assert.NoError(t, Validate(req))
}

func TestValidateOptionalPointers(t *testing.T) {
	empty := ""
	assert.NoError(t, Validate(DonorUpdateRequest{}))
	assert.Error(t, Validate(DonorUpdateRequest{FirstName: &empty}))

	bad := "nope"
	assert.Error(t, Validate(OrganizationRequest{Website: &bad}))
}
