package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	require.Nil(t, ToDomainError(nil))

	t.Run("domain error passes through wrapping", func(t *testing.T) {
		orig := NewConflict("email already registered", nil)
		got := ToDomainError(fmt.Errorf("register: %w", orig))
		assert.Equal(t, "CONFLICT", got.Code)
		assert.Equal(t, http.StatusConflict, got.HTTPStatus)
	})

	t.Run("fiber error keeps status", func(t *testing.T) {
		got := ToDomainError(fiber.NewError(http.StatusBadRequest, "invalid payload"))
		assert.Equal(t, "VALIDATION_FAILED", got.Code)
		assert.Equal(t, "invalid payload", got.Message)
		assert.Equal(t, http.StatusBadRequest, got.HTTPStatus)
	})

	t.Run("unknown error is internal", func(t *testing.T) {
		cause := errors.New("boom")
		got := ToDomainError(cause)
		assert.Equal(t, "INTERNAL_ERROR", got.Code)
		assert.ErrorIs(t, got, cause)
	})
}

func TestServiceUnavailableHidesCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NewServiceUnavailable("AUTH_UNAVAILABLE", "authentication unavailable", cause)

	got := ToDomainError(err)
	assert.Equal(t, http.StatusServiceUnavailable, got.HTTPStatus)
	assert.Equal(t, "authentication unavailable", got.Message)
	assert.ErrorIs(t, err, cause)
}
