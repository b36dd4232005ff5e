package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"auth", NewAuthError("invalid token", nil), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("not allowed", nil), http.StatusForbidden},
		{"not found", NewNotFoundError("note not found", nil), http.StatusNotFound},
		{"validation", NewValidationError("invalid input", nil), http.StatusBadRequest},
		{"bad request", NewBadRequestError("invalid body", nil), http.StatusBadRequest},
		{"conflict", NewConflictError("email already registered", nil), http.StatusConflict},
		{"database", NewDatabaseError("query failed", nil), http.StatusInternalServerError},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError},
		{"config", NewConfigError("missing JWT_SECRET", nil), http.StatusInternalServerError},
		{"migration", NewMigrationError("dirty schema", nil), http.StatusInternalServerError},
		{"unknown", NewAppError(UnknownError, "?", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestToResponse_HidesServerSideDetail(t *testing.T) {
	err := NewDatabaseError("failed to insert user into users table", errors.New("connection refused"))

	resp := err.ToResponse()

	assert.Equal(t, "internal server error", resp.Error)
	assert.Empty(t, resp.Errors)
}

func TestToResponse_CarriesFieldErrors(t *testing.T) {
	fields := []FieldError{
		{Field: "name", Message: "Name must be at least 3 characters"},
		{Field: "email", Message: "Enter a valid email"},
	}
	err := NewValidationError("invalid input", fields)

	resp := err.ToResponse()

	assert.Equal(t, "invalid input", resp.Error)
	assert.Equal(t, fields, resp.Errors)
}

func TestFromError_FindsWrappedAppError(t *testing.T) {
	inner := NewNotFoundError("note not found", nil)
	wrapped := fmt.Errorf("update note: %w", inner)

	got, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)

	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestUnwrap_ExposesSentinel(t *testing.T) {
	sentinel := errors.New("token expired")
	err := NewAuthError("invalid token", sentinel)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "invalid token: token expired", err.Error())
	assert.True(t, IsAuthError(err))
	assert.False(t, IsForbidden(err))
}

func TestTypeHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("x", nil)))
	assert.True(t, IsForbidden(NewForbiddenError("x", nil)))
	assert.True(t, IsValidationError(NewValidationError("x", nil)))
	assert.True(t, IsConflictError(NewConflictError("x", nil)))
	assert.False(t, IsConflictError(errors.New("x")))
	assert.Equal(t, "forbidden", ForbiddenError.String())
}
