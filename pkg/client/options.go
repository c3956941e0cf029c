package client

import (
	"net/http"
	"strings"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetryMax bounds retries after the first attempt.  Negative values are
// ignored; 0 disables retries.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retryMax = n
		}
	}
}

// WithRetryWait sets the backoff bounds.  A non-positive min leaves both
// unchanged, and max is only applied when it is at least min.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) {
		if min <= 0 {
			return
		}
		c.retryWaitMin = min
		if max >= min {
			c.retryWaitMax = max
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithAPIPrefix overrides the route prefix, for servers mounted behind a
// path-rewriting proxy.
func WithAPIPrefix(prefix string) Option {
	return func(c *Client) {
		if prefix != "" {
			c.apiPrefix = "/" + strings.Trim(prefix, "/")
		}
	}
}
