package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(CodeNotFound, "patch request not found")
		assert.Equal(t, "not_found: patch request not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("sql: no rows")
		err := Wrap(cause, CodeInternal, "load failed")
		assert.Equal(t, "internal: load failed: sql: no rows", err.Error())
		assert.ErrorIs(t, err, cause)
	})
}

func TestCodeInspection(t *testing.T) {
	err := New(CodeTransitionDenied, "role may not approve")

	assert.True(t, HasCode(err, CodeTransitionDenied))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.True(t, Is(err, CodeTransitionDenied))

	t.Run("survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("outer: %w", err)
		assert.True(t, HasCode(wrapped, CodeTransitionDenied))
		assert.Equal(t, CodeTransitionDenied, CodeOf(wrapped))
	})

	t.Run("non-domain errors default to internal", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	})
}

func TestMetadata(t *testing.T) {
	err := New(CodeValidation, "missing field").
		Add("field", "because").
		Add("source", "create")

	field, ok := err.Load("field")
	require.True(t, ok)
	assert.Equal(t, "because", field)

	_, ok = err.Load("absent")
	assert.False(t, ok)

	t.Run("Meta returns an isolated copy", func(t *testing.T) {
		meta := err.Meta()
		require.Len(t, meta, 2)
		meta["field"] = "tampered"

		original, _ := err.Load("field")
		assert.Equal(t, "because", original)
	})

	t.Run("Meta is nil when empty", func(t *testing.T) {
		assert.Nil(t, New(CodeInternal, "bare").Meta())
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeTransitionDenied:   http.StatusForbidden,
		CodeConflict:           http.StatusConflict,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInvariantViolation: http.StatusInternalServerError,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
