// Package errors holds the error taxonomy shared by the service and web layers.
// Default error is internal service error at handler level;
// if an error carries a different status code use ErrorWithStatusCode.
package errors

import (
	"errors"
	"net/http"
)

type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Err        error // optional cause, never shown to the client
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func (e *ErrorWithStatusCode) Unwrap() error {
	return e.Err
}

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords so callers cannot tell the two apart.
var ErrInvalidCredentials = &ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}

func NotFound(what string) error {
	return &ErrorWithStatusCode{Message: what + " not found", StatusCode: http.StatusNotFound}
}

func Validation(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest}
}

func Storage(message string, cause error) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusInternalServerError, Err: cause}
}

func Unauthorized(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusUnauthorized}
}

func Conflict(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusConflict}
}

// StatusCode reports the HTTP status carried by err, 500 if none.
func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	return err != nil && StatusCode(err) == http.StatusNotFound
}

func IsValidation(err error) bool {
	return err != nil && StatusCode(err) == http.StatusBadRequest
}

func IsUnauthorized(err error) bool {
	return err != nil && StatusCode(err) == http.StatusUnauthorized
}
