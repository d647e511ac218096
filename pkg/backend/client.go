// Package backend is the REST client for the ERP backend.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lookup-erp/lookup/pkg/config"
	"github.com/lookup-erp/lookup/pkg/router"
)

// maxErrorBody caps how much of an error response is kept in HTTPError.
const maxErrorBody = 512

// TokenSource supplies the bearer token for backend calls. An empty token
// with a nil error sends the call without credentials.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Client talks to the ERP backend.
type Client struct {
	cfg    *config.Config
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	router *router.Router
	log    zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource makes every request carry a bearer token.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New creates a Client for cfg.Backend.URL.
func New(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.Backend.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme and host required", cfg.Backend.URL)
	}

	c := &Client{
		cfg:    cfg,
		base:   base,
		http:   &http.Client{Timeout: cfg.Backend.Timeout},
		router: router.New(cfg),
		log:    log.With().Str("component", "backend").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// response holds the result of a single backend attempt.
type response struct {
	statusCode int
	body       []byte
}

// do sends one request and reads the whole response.
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body []byte) (*response, error) {
	target := c.base.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ua := c.cfg.Backend.UserAgent; ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &response{statusCode: resp.StatusCode, body: respBody}, nil
}

// bearer fetches the token for one call. No TokenSource means anonymous calls.
func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("auth token: %w", err)
	}
	return token, nil
}

// isRetryable returns true if the status code warrants trying the next route.
func isRetryable(statusCode int) bool {
	return statusCode >= 500
}

func statusError(res *response) error {
	body := strings.TrimSpace(string(res.body))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &HTTPError{StatusCode: res.statusCode, Body: body}
}

func success(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// contextDone reports whether err comes from the caller giving up.
func contextDone(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
