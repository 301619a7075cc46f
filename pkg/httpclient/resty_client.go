// Package httpclient builds the resty clients the API wrapper and the HTTP
// notification sink share, so timeouts are configured in one place.
package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 30 * time.Second

// NewRestyHTTPClient returns a resty.Client with the given timeout. Callers
// chain their own base URL, auth and headers.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}
