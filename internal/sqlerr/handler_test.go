package sqlerr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/go-items/internal/errs"
	"github.com/deppfellow/go-items/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestHandleErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "items_name_key"`,
		TableName:      "items",
		ConstraintName: "items_name_key",
	}

	httpErr := asHTTPError(t, sqlerr.HandleError(fmt.Errorf("create item: %w", pgErr)))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "ITEM_ALREADY_EXISTS", httpErr.Code)
	assert.Equal(t, "An Item with this Name already exists", httpErr.Message)
	assert.NotContains(t, httpErr.Message, "duplicate key")
	assert.True(t, httpErr.Override)
}

func TestHandleErrorNotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23502", TableName: "items", ColumnName: "name"}

	httpErr := asHTTPError(t, sqlerr.HandleError(pgErr))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "ITEM_REQUIRED", httpErr.Code)
	assert.Equal(t, []errs.FieldError{{Field: "name", Error: "is required"}}, httpErr.Errors)
}

func TestHandleErrorUnknownPgErrorIsGeneric(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: `relation "items" does not exist`}

	httpErr := asHTTPError(t, sqlerr.HandleError(pgErr))

	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "Internal Server Error", httpErr.Message)
}

func TestHandleErrorNoRows(t *testing.T) {
	httpErr := asHTTPError(t, sqlerr.HandleError(pgx.ErrNoRows))

	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestHandleErrorPassesHTTPErrorThrough(t *testing.T) {
	original := errs.NewNotFoundError("Item not found", false, nil)

	assert.Same(t, original, sqlerr.HandleError(original))
}

func TestHandleErrorUnknown(t *testing.T) {
	httpErr := asHTTPError(t, sqlerr.HandleError(errors.New("dial tcp: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "Internal Server Error", httpErr.Message)
}

func TestHandleErrorRejectedValueIsBadRequest(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		message string
	}{
		{"nul byte", "22021", "One or more values contain characters that cannot be stored"},
		{"too long", "22001", "One or more values are too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.state, Message: `invalid byte sequence for encoding "UTF8": 0x00`}

			httpErr := asHTTPError(t, sqlerr.HandleError(fmt.Errorf("create item: %w", pgErr)))

			assert.Equal(t, http.StatusBadRequest, httpErr.Status)
			assert.Equal(t, "RECORD_INVALID", httpErr.Code)
			assert.Equal(t, tt.message, httpErr.Message)
			assert.NotContains(t, httpErr.Message, "UTF8")
		})
	}
}

func TestMapCode(t *testing.T) {
	assert.Equal(t, sqlerr.UniqueViolation, sqlerr.MapCode("23505"))
	assert.Equal(t, sqlerr.CharacterNotInRepertoire, sqlerr.MapCode("22021"))
	assert.Equal(t, sqlerr.StringDataRightTruncation, sqlerr.MapCode("22001"))
	assert.Equal(t, sqlerr.Other, sqlerr.MapCode("99999"))
}
