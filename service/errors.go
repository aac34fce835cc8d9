package service

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnauthorized marks a 401 from any endpoint. The session slot has
	// already been cleared when a caller sees it.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransport marks failures that happened before a response arrived.
	ErrTransport = errors.New("transport failure")
)

// APIError is returned when the cinema API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Method     string
	Endpoint   string
	Message    string
	Body       string
	// RequestID is the X-Request-ID the client sent.
	RequestID  string
}

func (e *APIError) Error() string {
	if e == nil {
		return "cinema api error"
	}
	detail := e.Message
	if detail == "" {
		detail = e.Body
	}
	return fmt.Sprintf("cinema api error: %s %s: %s: %s", e.Method, e.Endpoint, e.Status, detail)
}

// IsNotFound reports whether the error represents a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// UserMessage turns err into the single line shown next to a form or view.
// The server's message wins when it sent one.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case IsUnauthorized(err):
		return "Your session has expired. Please log in again."
	case IsTransport(err):
		return "Cannot reach the server. Check your connection and try again."
	}
	if fallback == "" {
		return err.Error()
	}
	return fallback
}
