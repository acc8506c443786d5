package shared

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const genericServerError = "An error occurred, please try again later"

var (
	ErrBadRouting   = errors.New("inconsistent mapping between route and handler (programmer error)")
	ErrInvalidBody  = errors.New("request body must be a valid json document")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("you are not allowed to perform this action")
)

// VerboseErrors exposes internal error details in 5xx responses. Only set it in development.
var VerboseErrors = false

type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

func Invalid(reason string) error {
	return ValidationError{Reason: reason}
}

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(ValidationError)
	return ok
}

// DefaultStatus maps the errors every package shares to a status code.
func DefaultStatus(err error) int {
	if IsValidationError(err) {
		return http.StatusBadRequest
	}
	switch errors.Cause(err) {
	case ErrInvalidBody:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// WriteError answers with the error envelope. Unless VerboseErrors is set, internal errors get a generic
// message and upstream failures only expose their root cause.
func WriteError(w http.ResponseWriter, err error, code int) {
	message := err.Error()
	switch {
	case VerboseErrors || code < http.StatusInternalServerError:
	case code == http.StatusInternalServerError:
		message = genericServerError
	default:
		message = errors.Cause(err).Error()
	}
	WriteJSON(w, Envelope{Success: false, Error: message}, code)
}

func DecodeJSON(body io.Reader, v interface{}) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if err == io.EOF {
			return ErrInvalidBody
		}
		return errors.Wrap(ErrInvalidBody, err.Error())
	}
	return nil
}
