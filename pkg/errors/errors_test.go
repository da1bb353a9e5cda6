package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		typ    ErrorType
	}{
		{"validation", NewValidationError("bad", nil), http.StatusBadRequest, ErrorTypeValidation},
		{"authentication", NewAuthenticationError("who"), http.StatusUnauthorized, ErrorTypeAuthentication},
		{"authorization", NewAuthorizationError("no"), http.StatusForbidden, ErrorTypeAuthorization},
		{"not found", NewNotFoundError("gone"), http.StatusNotFound, ErrorTypeNotFound},
		{"conflict", NewConflictError("dup"), http.StatusConflict, ErrorTypeConflict},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError, ErrorTypeInternal},
		{"rate limit", NewRateLimitError("slow"), http.StatusTooManyRequests, ErrorTypeRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.typ, tt.err.Type)
		})
	}
}

func TestAs(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, As(nil))
	})

	t.Run("wrapped app error is unwrapped", func(t *testing.T) {
		conflict := NewConflictError("already a member")
		wrapped := fmt.Errorf("join club: %w", conflict)

		got := As(wrapped)
		require.NotNil(t, got)
		assert.Same(t, conflict, got)
		assert.True(t, IsType(wrapped, ErrorTypeConflict))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		cause := fmt.Errorf("connection reset")

		got := As(cause)
		require.NotNil(t, got)
		assert.Equal(t, ErrorTypeInternal, got.Type)
		assert.Equal(t, "Internal server error", got.Message)
		assert.ErrorIs(t, got, cause)
	})
}

func TestAppError_Response(t *testing.T) {
	err := NewValidationError("Invalid request", map[string]interface{}{"name": "required"})

	resp := err.Response()

	assert.Equal(t, "Invalid request", resp.Error)
	assert.Equal(t, ErrorTypeValidation, resp.Type)
	assert.Equal(t, "required", resp.Details["name"])
}
