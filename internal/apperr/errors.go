// Package apperr defines the failure taxonomy shared by the cart and order
// workflows and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a referenced resource that does not exist.
type NotFoundError struct {
	Resource string
	Key      any
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Key)
}

// PolicyDeniedError reports an authorization failure for an authenticated caller.
type PolicyDeniedError struct {
	Operation string
}

func (e PolicyDeniedError) Error() string {
	return fmt.Sprintf("not permitted to %s", e.Operation)
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string {
	return e.Message
}

// EmptyCartError is returned when an order is placed from an empty cart.
type EmptyCartError struct{}

func (EmptyCartError) Error() string {
	return "The cart is empty"
}

// HTTPStatus maps err onto a response status. Errors outside the taxonomy
// map to 500.
func HTTPStatus(err error) int {
	var (
		validation ValidationError
		notFound   NotFoundError
		denied     PolicyDeniedError
		conflict   ConflictError
		emptyCart  EmptyCartError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &emptyCart):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err belongs to the taxonomy above.
func IsClientError(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
