package lunatech

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Every repository and session operation fails with exactly one of these,
// wrapped with the operation name. Test with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrUpload          = errors.New("upload failed")
	ErrTransport       = errors.New("backend unavailable")

	// ErrAuth is returned by sign-in when the credentials are rejected.
	ErrAuth = errors.New("invalid email or password")
)

// StatusFor maps an error from the taxonomy to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUpload):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// Message returns the user-facing text for err. Taxonomy errors are shown
// verbatim minus the leading operation name; anything else is generic.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, known := range []error{ErrValidation, ErrUnauthenticated, ErrConflict, ErrNotFound, ErrUpload, ErrTransport, ErrAuth} {
		if errors.Is(err, known) {
			msg := err.Error()
			if i := strings.Index(msg, known.Error()); i > 0 {
				msg = msg[i:]
			}
			return msg
		}
	}
	return "Something went wrong. Please try again."
}
