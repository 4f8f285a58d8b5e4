package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := Conflict("upload already in progress")
	wrapped := Wrap(base, "select file")

	assert.Equal(t, CodeConflict, GetCode(wrapped))
	assert.True(t, Is(wrapped, base))
	assert.Equal(t, "select file: upload already in progress", wrapped.Error())
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrapf(fmt.Errorf("boom"), "step %d", 3)

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Equal(t, "step 3: boom", wrapped.Error())
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", InvalidInput("empty"), http.StatusBadRequest},
		{"conflict", Conflict("busy"), http.StatusConflict},
		{"not found", NotFound("session"), http.StatusNotFound},
		{"external", ExternalServiceError("gemini", fmt.Errorf("503")), http.StatusBadGateway},
		{"wrapped conflict", Wrap(Conflict("busy"), "submit"), http.StatusConflict},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestExternalServiceErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ExternalServiceError("gemini", cause)

	assert.True(t, Is(err, cause))
	assert.Equal(t, "gemini service error: connection refused", err.Error())
}
