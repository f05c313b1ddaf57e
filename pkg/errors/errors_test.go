package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewValidationError(CodeOutOfRange, "days must be between 1 and 365")
	assert.Equal(t, "OUT_OF_RANGE: days must be between 1 and 365", err.Error())

	err.WithDetails("got 0")
	assert.Equal(t, "OUT_OF_RANGE: days must be between 1 and 365 - got 0", err.Error())
}

func TestModelFitErrorCarriesCause(t *testing.T) {
	cause := fmt.Errorf("svd did not converge")
	err := NewModelFitError("arima", cause)

	assert.Equal(t, ErrorTypeModelFit, err.Type)
	assert.Equal(t, "svd did not converge", err.Details)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, 400, err.HTTPStatus)
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("dashboard: %w", NewInsufficientDataError("need 10 points"))

	assert.True(t, IsType(wrapped, ErrorTypeInsufficientData))
	assert.False(t, IsType(wrapped, ErrorTypeModelFit))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeValidation))
	assert.True(t, errors.Is(wrapped, ErrInsufficientData))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError(CodeInvalidMetric, "bad"), 400},
		{"not found", NewNotFoundError(CodeNoData, "none"), 404},
		{"storage", NewStorageError(CodeReadFailed, "down"), 503},
		{"internal", NewInternalError("boom"), 500},
		{"foreign", errors.New("x"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrapErrorRetryable(t *testing.T) {
	err := WrapError(fmt.Errorf("ping: %w", ErrConnectionFailed), ErrorTypeStorage, CodeConnectionFailed, "redis unreachable")
	require.NotNil(t, err)
	assert.True(t, err.Retryable)
	assert.True(t, errors.Is(err, ErrConnectionFailed))
}

func TestAsAppError(t *testing.T) {
	appErr, ok := AsAppError(fmt.Errorf("outer: %w", NewDataError(CodeInvalidDate, "bad date")))
	require.True(t, ok)
	assert.Equal(t, ErrorTypeData, appErr.Type)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
