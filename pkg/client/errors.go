package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse wraps payloads that cannot be turned into form values.
var ErrMalformedResponse = errors.New("client: malformed response")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Temporary reports whether retrying could help.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}
