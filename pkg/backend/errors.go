package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lookup-erp/lookup/pkg/models"
)

// ErrUnauthorized matches HTTPErrors with status 401 or 403.
var ErrUnauthorized = errors.New("unauthorized")

// HTTPError is a non-success response from the backend.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrUnauthorized) match auth failures.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// ParseError reports a response body that does not have the expected shape.
// Index is the offending record, or -1 when the envelope itself is wrong.
type ParseError struct {
	Domain models.Domain
	Index  int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse %s response", e.Domain)
	if e.Index >= 0 {
		msg += fmt.Sprintf(" record %d", e.Index)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
