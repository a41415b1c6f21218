package main

import (
	"errors"
	"net/http"
)

var (
	errValidation = errors.New("validation failed")
	errNotFound   = errors.New("not found")
	errAuth       = errors.New("invalid credentials")
	errDelivery   = errors.New("otp delivery failed")
)

// serviceError carries a client facing message and the error class it belongs to.
type serviceError struct {
	kind   error
	msg    string
	fields map[string]string
}

func newServiceError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

func (e *serviceError) Error() string {
	return e.msg
}

func (e *serviceError) Unwrap() error {
	return e.kind
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errAuth):
		return http.StatusUnauthorized
	default:
		// validation, delivery and anything unexpected are reported as client errors
		return http.StatusBadRequest
	}
}

func errorFields(err error) map[string]string {
	var se *serviceError
	if errors.As(err, &se) && len(se.fields) > 0 {
		return se.fields
	}
	return nil
}
