package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := Persistence(cause, "update job status")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "update job status: broken pipe", err.Error())
	assert.True(t, IsPersistence(err))
	assert.True(t, IsPersistence(fmt.Errorf("wrapped: %w", err)))
}

func TestConstructors(t *testing.T) {
	assert.True(t, IsNotFound(NotFoundf("job %s not found", "abc")))
	assert.True(t, IsValidation(Validation("bad distribution center")))
	assert.Equal(t, ErrCodeValidation, GetCode(Validationf("bad %s", "dc")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
}

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want ErrorCode
	}{
		{"no rows", pgx.ErrNoRows, ErrCodeNotFound},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, ErrCodeConflict},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "status"}, ErrCodeValidation},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation}, ErrCodeValidation},
		{"other pg", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, ErrCodePersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(MapDBError(tt.in)))
		})
	}

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, MapDBError(nil))
	})
	t.Run("unrecognized error is unchanged", func(t *testing.T) {
		plain := errors.New("not a db error")
		assert.Same(t, plain, MapDBError(plain))
	})
}
