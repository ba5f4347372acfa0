// Package rest provides the HTTP client shared by the provider adapters:
// bearer injection from the token manager, bounded retry of transient
// failures, and classification into the engine's error taxonomy.
package rest

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

	"github.com/cenkalti/backoff/v4"

	"github.com/brixworks/sitesync/internal/domain/syncerr"
	"github.com/brixworks/sitesync/internal/port/provider"
)

const maxRetries = 3

// Client issues authenticated JSON requests against one provider API.
type Client struct {
	name   string
	base   string
	tokens provider.TokenSource
	hc     *http.Client

	// newBackOff is swappable for testing.
	newBackOff func() backoff.BackOff
}

// New creates a Client for the given provider name and base URL. The token
// source is consulted on every attempt so a mid-flight refresh is picked up.
func New(name, baseURL string, tokens provider.TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		name:   name,
		base:   strings.TrimSuffix(baseURL, "/"),
		tokens: tokens,
		hc:     &http.Client{Timeout: timeout},
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Get issues a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, query url.Values, header http.Header) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, header)
}

// Post issues a POST request with a JSON body and returns the response body.
func (c *Client) Post(ctx context.Context, path string, payload any, header http.Header) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload, header)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, header http.Header) ([]byte, error) {
	reqURL := c.base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", c.name, err)
		}
	}

	op := fmt.Sprintf("%s %s %s", c.name, method, path)

	attempt := func() ([]byte, error) {
		var body io.Reader
		if raw != nil {
			body = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		if c.tokens != nil {
			token, err := c.tokens.Bearer(ctx)
			if err != nil {
				// Token failures carry their own classification; never retry here.
				return nil, backoff.Permanent(err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if raw != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		switch {
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody)
		case resp.StatusCode >= 400:
			// Provider message verbatim, for operator diagnosis.
			return nil, backoff.Permanent(&syncerr.ProviderError{
				Provider:   c.name,
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(string(respBody)),
			})
		}
		return respBody, nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxRetries), ctx)
	respBody, err := backoff.RetryWithData(attempt, bo)
	if err != nil {
		var pe *syncerr.ProviderError
		if errors.As(err, &pe) {
			return nil, pe
		}
		if syncerr.IsTerminalAuth(err) || syncerr.IsRetryable(err) {
			return nil, err
		}
		return nil, syncerr.Retryable(op, err)
	}
	return respBody, nil
}
