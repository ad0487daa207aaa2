package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/goliatone/go-stationform/pkg/contract"
	"github.com/goliatone/go-stationform/pkg/logging"
)

const maxBodyBytes = 8 << 20

const defaultRetryInterval = 250 * time.Millisecond

// Client issues the backend calls of the download form.
type Client struct {
	base          string
	http          *http.Client
	paths         Paths
	timeout       time.Duration
	maxTries      uint
	retryInterval time.Duration
	contract      *contract.Contract
	logger        logging.Logger
	userAgent     string
}

// New builds a client rooted at baseURL. An empty baseURL keeps every target
// relative, the way a page served by the backend would address it; such a
// client can build targets but cannot fetch.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("client: parse base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("client: base url %q must be http or https", baseURL)
		}
		if u.RawQuery != "" || u.Fragment != "" {
			return nil, fmt.Errorf("client: base url %q must not carry a query or fragment", baseURL)
		}
	}

	c := &Client{
		base:          base,
		http:          http.DefaultClient,
		paths:         DefaultPaths(),
		retryInterval: defaultRetryInterval,
		logger:        logging.Noop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised backend root.
func (c *Client) BaseURL() string { return c.base }

// Paths returns the configured backend routes.
func (c *Client) Paths() Paths { return c.paths }

// DownloadURL resolves the download target against the backend root.
func (c *Client) DownloadURL(q DownloadQuery) string {
	return c.base + DownloadTarget(c.paths, q)
}

// Stations returns the station identifiers offered for years, stringified in
// server order.
func (c *Client) Stations(ctx context.Context, years []string) ([]string, error) {
	res, err := c.fetch(ctx, StationListTarget(c.paths, years), "application/json")
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return nil, fmt.Errorf("%w: station list: %v", ErrMalformedResponse, err)
	}
	if c.contract != nil {
		if err := c.contract.ValidateResponse(http.MethodGet, c.paths.StationList, res.status, res.contentType, payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return StationIdentifiers(payload)
}

// Citation returns the recommended citation text for years.
func (c *Client) Citation(ctx context.Context, years []string) (string, error) {
	res, err := c.fetch(ctx, CitationTarget(c.paths, years), "text/plain, text/html;q=0.9")
	if err != nil {
		return "", err
	}
	text := string(res.body)
	if c.contract != nil {
		if err := c.contract.ValidateResponse(http.MethodGet, c.paths.Citation, res.status, res.contentType, text); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return text, nil
}

type fetched struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) fetch(ctx context.Context, target, accept string) (fetched, error) {
	if c.base == "" {
		return fetched{}, errors.New("client: base url is required to fetch " + target)
	}
	full := c.base + target

	attempt := 0
	op := func() (fetched, error) {
		attempt++
		res, err := c.do(ctx, full, accept)
		if err == nil {
			return res, nil
		}
		c.logger.Debug(ctx, "backend request failed",
			logging.String("url", full),
			logging.Int("attempt", attempt),
			logging.Err(err),
		)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return fetched{}, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return fetched{}, backoff.Permanent(err)
		}
		return fetched{}, err
	}

	if c.maxTries < 2 {
		return c.do(ctx, full, accept)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
	)
}

func (c *Client) do(ctx context.Context, target, accept string) (fetched, error) {
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return fetched{}, fmt.Errorf("client: request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fetched{}, fmt.Errorf("client: GET %s: %w", target, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fetched{}, &StatusError{Code: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fetched{}, fmt.Errorf("client: read %s: %w", target, err)
	}
	return fetched{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}
