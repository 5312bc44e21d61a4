package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapWriteError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "donors_email_key"}
	assert.ErrorIs(t, mapWriteError(fmt.Errorf("insert: %w", unique)), ErrDuplicate)

	fk := &pgconn.PgError{Code: "23503"}
	assert.Same(t, fk, mapWriteError(fk))

	other := errors.New("boom")
	assert.Equal(t, other, mapWriteError(other))
	assert.NoError(t, mapWriteError(nil))
}

func TestPageBounds(t *testing.T) {
	cases := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 50, 0},
		{10, 20, 10, 20},
		{500, -3, 200, 0},
	}
	for _, tc := range cases {
		limit, offset := pageBounds(tc.limit, tc.offset)
		assert.Equal(t, tc.wantLimit, limit)
		assert.Equal(t, tc.wantOffset, offset)
	}
}
