package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "storage failed", Err: fmt.Errorf("disk full")}
	assert.Equal(t, "INTERNAL_ERROR: storage failed: disk full", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "review not found"}
	assert.Equal(t, "NOT_FOUND: review not found", bare.Error())
}

func TestConstructors_WrapSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		sentinel error
		status   int
		code     string
	}{
		{"not found", NotFound("review", "7"), ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already exists", AlreadyExists("review", "product", "3"), ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"invalid input", InvalidInput("bad"), ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"unauthorized", Unauthorized("no token"), ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", Forbidden("no permission"), ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"unavailable", Unavailable("oembed provider", errors.New("timeout")), ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, Code(tt.err))
		})
	}
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(Wrap(ErrNotFound, "get review")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(fmt.Errorf("insert: %w", ErrAlreadyExists)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestCode_BareSentinels(t *testing.T) {
	assert.Equal(t, "FORBIDDEN", Code(fmt.Errorf("update review: %w", ErrForbidden)))
	assert.Equal(t, "INTERNAL_ERROR", Code(errors.New("boom")))
}
