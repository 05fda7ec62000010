// Package apiclient talks to the bonafide REST API.
//
// Every authenticated call goes through Client.do, which attaches the bearer token taken from
// the caller's Credentials and, on a 401, refreshes once and retries once.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/logger"
)

// Credentials supplies the bearer token for one browser session.
type Credentials interface {
	// AccessToken returns the current access token.
	AccessToken() string
	// Refresh exchanges the refresh token for a new access token and stores it.
	Refresh(ctx context.Context) (string, error)
	// Invalidate ends the session after an unrecoverable authentication failure.
	Invalidate(ctx context.Context)
}

const sessionExpiredMessage = "Your session has expired. Please log in again."

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is the bonafide API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a Client. BaseURL is the API root, e.g. http://localhost:8000/api.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		log:        logger.Component("apiclient"),
	}
}

// request describes one API call. The body is serialized up front so a retry can resend it.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	// public calls carry no token and never trigger a refresh.
	public bool
}

func newRequest(method, path string) *request {
	return &request{method: method, path: path}
}

func (r *request) withQuery(q url.Values) *request {
	r.query = q
	return r
}

func (r *request) withJSON(v interface{}) (*request, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	r.body = data
	r.contentType = "application/json"
	return r, nil
}

func (r *request) asPublic() *request {
	r.public = true
	return r
}

func (c *Client) url(r *request) string {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	return u
}

// send performs a single HTTP round trip.
func (c *Client) send(ctx context.Context, r *request, token string) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.url(r), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warn().Err(err).Str("method", r.method).Str("path", r.path).Msg("API request failed")
		return nil, apperrors.NewCustomError(apperrors.ErrUpstream, apperrors.ErrUpstream.Error())
	}

	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("API request")
	return resp, nil
}

// do performs r and returns a successful response. The caller closes the body.
// An authenticated call answered with 401 is retried exactly once after a refresh; a rejected
// refresh or a second 401 invalidates the session and yields ErrSessionExpired. A refresh that
// was cut short (caller gone, timeout, API unreachable) leaves the session in place.
func (c *Client) do(ctx context.Context, creds Credentials, r *request) (*http.Response, error) {
	if r.public {
		resp, err := c.send(ctx, r, "")
		if err != nil {
			return nil, err
		}
		return checkStatus(resp)
	}

	if creds == nil {
		return nil, apperrors.ErrUnauthorized
	}

	resp, err := c.send(ctx, r, creds.AccessToken())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return checkStatus(resp)
	}
	drain(resp)

	token, err := creds.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if refreshInterrupted(err) {
			c.log.Warn().Err(err).Str("path", r.path).Msg("Token refresh did not complete, keeping session")
			return nil, apperrors.NewCustomError(apperrors.ErrUpstream, apperrors.ErrUpstream.Error())
		}
		c.log.Info().Err(err).Str("path", r.path).Msg("Token refresh failed, ending session")
		creds.Invalidate(ctx)
		return nil, apperrors.NewCustomError(apperrors.ErrSessionExpired, sessionExpiredMessage)
	}

	resp, err = c.send(ctx, r, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		c.log.Warn().Str("path", r.path).Msg("Refreshed token rejected, ending session")
		creds.Invalidate(ctx)
		return nil, apperrors.NewCustomError(apperrors.ErrSessionExpired, sessionExpiredMessage)
	}
	return checkStatus(resp)
}

// doJSON performs r and decodes the JSON response into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, creds Credentials, r *request, out interface{}) error {
	resp, err := c.do(ctx, creds, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response from %s: %w", r.path, err)
	}
	return nil
}

// doList performs r and normalizes a bare array or {results: [...]} into a slice.
func doList[T any](ctx context.Context, c *Client, creds Credentials, r *request) ([]T, error) {
	resp, err := c.do(ctx, creds, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", r.path, err)
	}
	items, err := decodeList[T](data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode list from %s: %w", r.path, err)
	}
	return items, nil
}

// refreshInterrupted reports whether the refresh never got an answer from the API.
func refreshInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, apperrors.ErrUpstream)
}

func checkStatus(resp *http.Response) (*http.Response, error) {
	if resp.StatusCode < 400 {
		return resp, nil
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return nil, decodeAPIError(resp.StatusCode, data)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}
