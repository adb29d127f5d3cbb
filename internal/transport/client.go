// Package transport performs the single GET requests made against the
// contracts and geocoding APIs and turns every failure into a typed error.
// There is no retry or backoff here; callers decide what a failure means.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
)

// Client fetches JSON documents from one base URL.
type Client struct {
	service string
	baseURL string
	http    *http.Client
	auth    Authenticator
	logger  *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithAuth sets the authenticator.
func WithAuth(auth Authenticator) Option {
	return func(c *Client) {
		if auth != nil {
			c.auth = auth
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// New creates a client for service rooted at baseURL.
func New(service, baseURL string, opts ...Option) *Client {
	c := &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:    NoAuth{},
		logger:  logging.OrNop(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the name used in errors and logs.
func (c *Client) Service() string {
	return c.service
}

// URL builds base + "/" + endpoint + "?" + encoded query, without credentials.
func (c *Client) URL(endpoint string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Fetch performs one GET and returns the JSON body.
func (c *Client) Fetch(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	target := c.URL(endpoint, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.WrapTransport(c.service, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	c.auth.Apply(req)

	c.logger.Debug().
		Str("service", c.service).
		Str("url", target).
		Msg("GET")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapTransport(c.service, endpoint, err)
	}

	body, err := DecodeResponse(resp, c.service, endpoint)
	c.logger.Trace().
		Str("service", c.service).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("response")
	return body, err
}
