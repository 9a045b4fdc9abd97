package remote

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// NetworkError is the single failure type of the client: timeouts, transport
// errors, non-2xx responses and undecodable bodies all surface as one.
type NetworkError struct {
	Method string
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NetworkError for an HTTP 404.
func IsNotFound(err error) bool {
	var nerr *NetworkError
	return errors.As(err, &nerr) && nerr.Status == http.StatusNotFound
}

var secretParams = []string{"token", "apikey", "apiKey", "api_key"}

// redactURL masks credential query parameters so URLs can be logged.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}
	cp := *u
	cp.RawQuery = q.Encode()
	return cp.String()
}
