// Package service implements the business rules for event lifecycle and
// registration admission, between the HTTP handlers and the stores.
package service

import "errors"

// ErrForbidden is returned when the caller is authenticated but not
// allowed to perform the operation: wrong role, or not the owner.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports a malformed or out-of-range input, naming the
// violated field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
