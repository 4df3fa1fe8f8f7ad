// Package client is the typed HTTP client of the store API. Every call
// authenticates with the Credentials object the Client was built with and
// fails with an *Error classified by Kind.
package client

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diewo77/scanpos/httpx"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
)

type Client struct {
	baseURL    string
	creds      *Credentials
	httpClient *http.Client
	log        zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the store at baseURL. A nil creds gets a fresh,
// empty Credentials.
func New(baseURL string, creds *Credentials, opts ...Option) *Client {
	if creds == nil {
		creds = NewCredentials()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Credentials() *Credentials { return c.creds }

func (c *Client) BaseURL() string { return c.baseURL }

// do sends one request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("store: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("store: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	token := c.creds.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("store unreachable")
		return &Error{Kind: KindNetworkUnavailable, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &Error{Kind: KindNetworkUnavailable, Status: resp.StatusCode, Err: err}
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("store request")

	if resp.StatusCode >= http.StatusBadRequest {
		return c.responseError(resp.StatusCode, data, token != "")
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindServerError, Status: resp.StatusCode, Message: "invalid response from store", Err: err}
	}
	return nil
}

func (c *Client) responseError(status int, body []byte, authenticated bool) *Error {
	e := &Error{Kind: kindForStatus(status, authenticated), Status: status}
	var env httpx.ErrorResponse
	if json.Unmarshal(body, &env) == nil {
		e.Code = env.Error
		e.Message = env.Message
		if e.Message == "" {
			e.Message = env.Error
		}
	}
	if e.Kind == KindAuthExpired {
		c.creds.Clear()
		c.log.Info().Int("status", status).Msg("store rejected token, credentials cleared")
	}
	return e
}

func pageQuery(page, pageSize int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if pageSize > 0 {
		q.Set("page_size", fmt.Sprint(pageSize))
	}
	return q
}

func idPath(format string, ids ...uint) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}
