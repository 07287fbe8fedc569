package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const maxErrorBody = 64 << 10

// Client is the single gateway to the remote mentions API. An unscoped
// client carries no credentials; Scoped returns a copy bound to a bearer token.
type Client struct {
	origin         *url.URL
	httpClient     *http.Client
	onUnauthorized func()
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a client for the API served at origin (e.g. "http://localhost:8000")
func New(origin string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "[adminapi New] invalid API origin %q", origin)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[adminapi New] API origin %q must include scheme and host", origin)
	}

	c := &Client{
		origin:     u,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Scoped returns a client that attaches "Authorization: Bearer <token>" to
// every request. onUnauthorized is invoked when the API answers 401 so the
// caller can purge the stored credentials.
func (c *Client) Scoped(token *oauth2.Token, onUnauthorized func()) *Client {
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		origin: c.origin,
		httpClient: &http.Client{
			Timeout:       c.httpClient.Timeout,
			CheckRedirect: c.httpClient.CheckRedirect,
			Jar:           c.httpClient.Jar,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(token),
				Base:   base,
			},
		},
		onUnauthorized: onUnauthorized,
	}
}

// Origin returns the configured base origin
func (c *Client) Origin() string {
	return c.origin.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.origin
	escaped := strings.TrimRight(u.EscapedPath(), "/") + path
	if unescaped, err := url.PathUnescape(escaped); err == nil {
		u.Path = unescaped
		u.RawPath = escaped
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// Responses with status >= 400 are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[adminapi] encode %s %s", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return errors.Wrapf(err, "[adminapi] build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[adminapi] %s %s: %w: %v", method, path, errors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			log.Debug().Str("method", method).Str("path", path).Msg("API rejected credentials, purging session")
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("[adminapi] read %s %s: %w: %v", method, path, errors.ErrTransport, err)
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "[adminapi] decode %s %s", method, path)
	}
	return nil
}
