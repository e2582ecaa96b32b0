package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// BusinessError is a 2xx response whose envelope reports failure. The full
// envelope is kept so callers can inspect code and data.
type BusinessError struct {
	Envelope Envelope
}

func (e *BusinessError) Error() string {
	if e.Envelope.Message == "" {
		return fmt.Sprintf("request failed (code %d)", e.Envelope.Code)
	}
	return fmt.Sprintf("%s (code %d)", e.Envelope.Message, e.Envelope.Code)
}

// NetworkError wraps a transport failure: no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsUnauthorized reports a 401, whether it came as an HTTP status or an envelope code.
func IsUnauthorized(err error) bool {
	if IsStatus(err, http.StatusUnauthorized) {
		return true
	}
	var bizErr *BusinessError
	return errors.As(err, &bizErr) && bizErr.Envelope.Code == http.StatusUnauthorized
}

// IsNetwork reports a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// Message returns the text a user should see for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var bizErr *BusinessError
	var httpErr *HTTPError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, context.Canceled):
		return msgCanceled
	case IsUnauthorized(err):
		return msgUnauthorized
	case errors.As(err, &bizErr):
		if bizErr.Envelope.Message != "" {
			return bizErr.Envelope.Message
		}
		return msgRequestFailed
	case errors.As(err, &httpErr):
		return statusMessage(httpErr.StatusCode, httpErr.Message)
	case IsNetwork(err):
		return msgNetwork
	default:
		return err.Error()
	}
}

// User-facing notices.
const (
	msgUnauthorized  = "session expired, please log in again"
	msgForbidden     = "access denied"
	msgNotFound      = "requested resource does not exist"
	msgServerError   = "server error, try again later"
	msgNetwork       = "network error, check your connection"
	msgRequestFailed = "request failed"
	msgTimeout       = "request timed out"
	msgCanceled      = "request cancelled"
)

func statusMessage(code int, serverMsg string) string {
	switch code {
	case http.StatusUnauthorized:
		return msgUnauthorized
	case http.StatusForbidden:
		return msgForbidden
	case http.StatusNotFound:
		return msgNotFound
	case http.StatusInternalServerError:
		return msgServerError
	}
	if serverMsg != "" {
		return serverMsg
	}
	return fmt.Sprintf("%s (%d)", msgRequestFailed, code)
}
