package httpclient

import (
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/ecomgo/reviews/pkg/errors"
)

// StatusError describes a non-2xx response from an upstream.
type StatusError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Upstream, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Upstream, e.StatusCode, e.Body)
}

// Unwrap maps the status onto the shared sentinels so callers can use
// errors.Is(err, apperrors.ErrNotFound) and friends.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone:
		return apperrors.ErrNotFound
	case e.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return apperrors.ErrForbidden
	case e.StatusCode >= 500:
		return apperrors.ErrServiceUnavail
	case IsClientError(e.StatusCode):
		return apperrors.ErrInvalidInput
	default:
		return nil
	}
}

// CheckResponse returns nil for 2xx responses. Otherwise it drains up to
// 1 KiB of the body into a StatusError and closes it.
func CheckResponse(resp *http.Response, upstream string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	return &StatusError{Upstream: upstream, StatusCode: resp.StatusCode, Body: string(body)}
}

// IsClientError reports whether status is a 4xx code.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
