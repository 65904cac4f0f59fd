package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("product", "42")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "product with id 42 not found")
}

func TestAppError_Unwrap(t *testing.T) {
	err := NotFound("order", "abc")
	assert.True(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("load order: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestInsufficientStock(t *testing.T) {
	err := InsufficientStock(7, 5, 2)

	assert.Equal(t, int64(7), err.ProductID)
	assert.Equal(t, 2, err.Available)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Message, "product 7")
}

func TestGatewayError_JoinsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := GatewayError(cause)

	assert.True(t, errors.Is(err, ErrGatewayUnavail))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, http.StatusBadGateway, err.Status)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", InvalidInput("bad"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("ctx: %w", NotFound("cart", "u1")), http.StatusNotFound},
		{"sentinel not found", ErrNotFound, http.StatusNotFound},
		{"sentinel insufficient stock", ErrInsufficientStock, http.StatusConflict},
		{"sentinel invalid signature", ErrInvalidSignature, http.StatusBadRequest},
		{"sentinel invalid metadata", ErrInvalidMetadata, http.StatusBadRequest},
		{"sentinel gateway", ErrGatewayUnavail, http.StatusBadGateway},
		{"stock error", InsufficientStock(1, 3, 0), http.StatusConflict},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
