package temapi

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// StatusError is returned for non-2xx responses from the module.
type StatusError struct {
	Method   string
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "unexpected status"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.Code, body)
}

// FetchError wraps a failed read of one device endpoint. The poller treats
// it as a per-slice failure and keeps the previous values.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "fetch failed"
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsUnreachable reports whether err means the module could not be contacted
// at all, as opposed to answering with an error.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "connection refused") ||
		strings.Contains(message, "no such host") ||
		strings.Contains(message, "timeout")
}
