// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/jobdiary/jobdiary/internal/shared"
)

const (
	msgForbidden = "You are not allowed to perform this action."
	msgExternal  = "The message could not be sent. Please try again later."
	msgInternal  = "Something went wrong. Please try again."
)

// RespondError maps domain errors to the failure envelope. Validation and
// integrity messages are shown verbatim; everything else gets a generic
// message so provider or authorization detail never leaks.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validation *shared.ValidationError
		integrity  *shared.IntegrityError
	)
	switch {
	case errors.As(err, &validation):
		Fail(w, http.StatusBadRequest, validation.Message, nil)
	case errors.Is(err, shared.ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &integrity):
		Fail(w, http.StatusConflict, integrity.Error(), map[string]any{"count": integrity.Count})
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Fail(w, http.StatusConflict, "This request was already submitted.", nil)
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, shared.ErrForbidden), errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		Fail(w, http.StatusForbidden, msgForbidden, nil)
	case errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, http.StatusUnauthorized, "Invalid email or password.", nil)
	case errors.Is(err, shared.ErrExternalService):
		Fail(w, http.StatusBadGateway, msgExternal, nil)
	default:
		Fail(w, http.StatusInternalServerError, msgInternal, nil)
	}
}

// Forbidden writes the generic authorization failure.
func Forbidden(w http.ResponseWriter) {
	Fail(w, http.StatusForbidden, msgForbidden, nil)
}
