// Package restclient holds the resty setup shared by the HTTP adapters and
// maps transport and response failures onto the apperr kinds.
package restclient

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"codeberg.org/snonux/marghivasal/internal/apperr"
)

// DefaultTimeout bounds every remote call
const DefaultTimeout = 20 * time.Second

// New returns a resty client with the shared defaults
func New(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "marghivasal")
}

// JSON starts a request whose response is always decoded as JSON, whatever
// content type the server claims. The PHP endpoints answer with text/html.
func JSON(c *resty.Client) *resty.Request {
	return c.R().ForceContentType("application/json")
}

// Check classifies the outcome of a resty call. A transport failure is a
// network error; a response that arrived but could not be decoded, or carried
// a non-2xx status, is a backend error.
func Check(op string, r *resty.Response, err error) error {
	if err != nil {
		if r != nil && r.RawResponse != nil {
			return fmt.Errorf("%w: %s: decode response: %w", apperr.ErrBackend, op, err)
		}
		return fmt.Errorf("%w: %s: %w", apperr.ErrNetwork, op, err)
	}
	if r.IsError() {
		return fmt.Errorf("%w: %s: %s", apperr.ErrBackend, op, r.Status())
	}
	return nil
}
