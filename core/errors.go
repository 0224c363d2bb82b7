package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated   = errors.New("login required")
	ErrCredentialMissing = errors.New("access token not found")
	ErrStaleSession      = errors.New("session changed while request was in flight")
	ErrRateNotFound      = errors.New("no exchange rate configured for game")
	ErrInvalidRate       = errors.New("invalid exchange rate")
	ErrMissingGame       = errors.New("missing game")
	ErrWorkflowCancelled = errors.New("workflow cancelled")
	ErrInvalidState      = errors.New("operation not permitted in current state")
)

// CodeOK is the envelope code of a successful backend call.
const CodeOK = http.StatusOK

// LocalizedErrors is the errors field of the backend envelope.
type LocalizedErrors struct {
	VI string `json:"vi,omitempty"`
	EN string `json:"en,omitempty"`
}

// Message returns the message in the preferred locale, falling back to the other one.
func (e *LocalizedErrors) Message(locale string) string {
	if e == nil {
		return ""
	}

	if locale == "en" {
		if e.EN != "" {
			return e.EN
		}

		return e.VI
	}

	if e.VI != "" {
		return e.VI
	}

	return e.EN
}

// APIError is an application level failure reported by the backend (code != 200).
type APIError struct {
	Code   int              `json:"code"`
	Errors *LocalizedErrors `json:"errors,omitempty"`
	Locale string           `json:"-"`
}

func (e *APIError) Error() string {
	if msg := e.Errors.Message(e.Locale); msg != "" {
		return fmt.Sprintf("backend error %d: %s", e.Code, msg)
	}

	return fmt.Sprintf("backend error %d", e.Code)
}

// Message returns the localized message, empty if the backend sent none.
func (e *APIError) Message() string {
	return e.Errors.Message(e.Locale)
}

func (e *APIError) IsAuth() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuth()
}

// ErrorMessage returns the localized backend message carried by err, or fallback.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}

	return fallback
}
