package client

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-stationform/pkg/contract"
	"github.com/goliatone/go-stationform/pkg/logging"
)

// Paths locates the backend routes.
type Paths struct {
	StationList string `yaml:"station_list"`
	Download    string `yaml:"download"`
	Citation    string `yaml:"citation"`
}

// DefaultPaths returns the routes served by the warehouse backend.
func DefaultPaths() Paths {
	return Paths{
		StationList: "/station_list",
		Download:    "/download",
		Citation:    "/citation",
	}
}

func (p Paths) withDefaults() Paths {
	def := DefaultPaths()
	p.StationList = normalisePath(p.StationList, def.StationList)
	p.Download = normalisePath(p.Download, def.Download)
	p.Citation = normalisePath(p.Citation, def.Citation)
	return p
}

func normalisePath(path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport. Nil keeps http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPaths overrides backend routes. Empty entries keep their defaults.
func WithPaths(paths Paths) Option {
	return func(c *Client) {
		c.paths = paths.withDefaults()
	}
}

// WithTimeout bounds each request attempt. Zero means no client-side limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithRetry enables a bounded exponential backoff for temporary failures.
// maxTries counts the first attempt; values below 2 disable retries.
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(c *Client) {
		c.maxTries = maxTries
		if initialInterval > 0 {
			c.retryInterval = initialInterval
		}
	}
}

// WithContract validates decoded responses against ct.
func WithContract(ct *contract.Contract) Option {
	return func(c *Client) {
		c.contract = ct
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header on outgoing requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}
