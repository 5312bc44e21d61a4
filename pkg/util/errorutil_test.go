package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "validation", err: NewValidationError("bad", nil), wantCode: "VALIDATION_FAILED", wantStatus: http.StatusBadRequest},
		{name: "wrapped unauthorized", err: fmt.Errorf("ctx: %w", NewUnauthorized("nope")), wantCode: "UNAUTHORIZED", wantStatus: http.StatusUnauthorized},
		{name: "forbidden", err: NewForbidden("no"), wantCode: "FORBIDDEN", wantStatus: http.StatusForbidden},
		{name: "no rows", err: fmt.Errorf("get donor: %w", pgx.ErrNoRows), wantCode: "NOT_FOUND", wantStatus: http.StatusNotFound},
		{name: "throttled", err: NewTooManyRequests("slow down"), wantCode: "TOO_MANY_REQUESTS", wantStatus: http.StatusTooManyRequests},
		{name: "unknown", err: errors.New("boom"), wantCode: "INTERNAL_ERROR", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}

	assert.Nil(t, ToDomainError(nil))
}

func TestInternalErrorHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:5432: connection refused")
	de := ToDomainError(NewInternalError(cause))

	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestUnauthorizedWithCause(t *testing.T) {
	cause := errors.New("token expired")
	err := NewUnauthorizedWithCause("authentication required", cause)

	de := ToDomainError(err)
	assert.Equal(t, "authentication required", de.Message)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.ErrorIs(t, err, cause)
}

func TestHasStatus(t *testing.T) {
	assert.True(t, HasStatus(NewTooManyRequests("slow down"), http.StatusTooManyRequests))
	assert.True(t, HasStatus(fmt.Errorf("load: %w", pgx.ErrNoRows), http.StatusNotFound))
	assert.False(t, HasStatus(errors.New("boom"), http.StatusNotFound))
	assert.False(t, HasStatus(nil, http.StatusOK))
}

func TestUpstreamErrorKeepsCause(t *testing.T) {
	cause := errors.New("plaid: 500")
	de := ToDomainError(NewUpstreamError("provider unavailable", cause))

	assert.Equal(t, CodeUpstream, de.Code)
	assert.Equal(t, http.StatusBadGateway, de.HTTPStatus)
	assert.ErrorIs(t, de, cause)
}
