// Package apperr defines the error kinds services return and the HTTP status
// each kind maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStorage           = errors.New("storage failure")
	ErrUnauthorized      = errors.New("unauthorized")
)

// NotFound reports that no entity of the given kind has the given id.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %s %w", entity, id, ErrNotFound)
}

// Invalid reports a rejected input field.
func Invalid(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// InsufficientStock reports that a product cannot cover the requested quantity.
func InsufficientStock(product string, available, requested int) error {
	return fmt.Errorf("%w: %s has %d available, %d requested", ErrInsufficientStock, product, available, requested)
}

// Storage wraps a backend failure.
func Storage(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// FieldError is a validation failure on a single input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return ErrValidation }

// HTTPStatus maps an error to the response status for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
