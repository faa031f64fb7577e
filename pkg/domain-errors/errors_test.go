package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCodeThroughWrapping(t *testing.T) {
	base := New(CodeInvalidCredentials, "Invalid email or password")
	wrapped := fmt.Errorf("login: %w", base)

	assert.True(t, HasCode(wrapped, CodeInvalidCredentials))
	assert.False(t, HasCode(wrapped, CodeUnauthorized))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeBackendRejected, "The server could not be reached")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "The server could not be reached", MessageOf(err))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("unclassified")))
	assert.Equal(t, CodeTimeout, CodeOf(New(CodeTimeout, "deadline exceeded")))
}

func TestMessageOfNeverLeaksRawText(t *testing.T) {
	assert.Equal(t, "internal error", MessageOf(errors.New("pq: connection reset")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:         http.StatusBadRequest,
		CodeInvalidInput:       http.StatusBadRequest,
		CodeInvalidCredentials: http.StatusUnauthorized,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeBackendRejected:    http.StatusBadGateway,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
