package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidMetadata   = errors.New("invalid metadata")
	ErrGatewayUnavail    = errors.New("payment gateway unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInternal          = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// StockError is an AppError carrying the product that could not be reserved
// and the quantity still available for it.
type StockError struct {
	AppError
	ProductID int64 `json:"product_id"`
	Available int   `json:"available"`
}

// InsufficientStock creates a 409 error for a failed stock reservation.
// The product named is the one that could not be covered.
func InsufficientStock(productID int64, requested, available int) *StockError {
	return &StockError{
		AppError: AppError{
			Code:    "INSUFFICIENT_STOCK",
			Message: fmt.Sprintf("product %d has %d unit(s) available, %d requested", productID, available, requested),
			Status:  http.StatusConflict,
			Err:     ErrInsufficientStock,
		},
		ProductID: productID,
		Available: available,
	}
}

// InvalidSignature creates a 400 error for a webhook whose signature could
// not be verified.
func InvalidSignature(message string) *AppError {
	return &AppError{
		Code:    "INVALID_SIGNATURE",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidSignature,
	}
}

// InvalidMetadata creates a 400 error for a payment event whose metadata is
// missing or malformed.
func InvalidMetadata(message string) *AppError {
	return &AppError{
		Code:    "INVALID_METADATA",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidMetadata,
	}
}

// GatewayError creates a 502 error for a failed payment-gateway call.
func GatewayError(err error) *AppError {
	return &AppError{
		Code:    "GATEWAY_ERROR",
		Message: "payment gateway request failed",
		Status:  http.StatusBadGateway,
		Err:     errors.Join(ErrGatewayUnavail, err),
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrInvalidMetadata):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrGatewayUnavail):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
