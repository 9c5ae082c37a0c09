package streak

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned when Streak answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("streak: GET %s: status %d: %s", e.Path, e.StatusCode, body)
}

// IsUnauthorized reports whether err is a 401 or 403 from Streak, which
// means the API key itself was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 from Streak. Endpoints missing from
// one API generation surface this way.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
