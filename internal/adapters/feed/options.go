package feed

import (
	"net/http"
	"time"

	"github.com/okian/rosterlens/pkg/logger"
)

// Option configures the HTTP client shared by the HTTP feeds.
type Option func(*client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRequestsPerMinute sets the request rate limit. Zero or less disables it.
func WithRequestsPerMinute(n int) Option {
	return func(c *client) {
		c.rpm = n
	}
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the base retry delay; attempt n waits n times this.
func WithBackoff(d time.Duration) Option {
	return func(c *client) {
		if d >= 0 {
			c.backoff = d
		}
	}
}

// WithLogger sets the feed logger.
func WithLogger(l logger.Logger) Option {
	return func(c *client) {
		if l != nil {
			c.log = l
		}
	}
}
