package raiderio

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/guildsnap/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. https://raider.io/api/v1.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRegion sets the region used for character lookups.
func WithRegion(region string) Option {
	return func(c *Client) {
		if region != "" {
			c.region = strings.ToLower(region)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout bounds every call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithGovernor gates every call through g.
func WithGovernor(g Governor) Option {
	return func(c *Client) {
		if g != nil {
			c.gov = g
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
