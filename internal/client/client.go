// Package client talks to the remote restaurant REST API. Responses are
// normalized here so the rest of the service sees a single shape per
// resource.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bistro-checkout/internal/model"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout          = 10 * time.Second
	errorBodyReadLimit int64 = 4096
)

var errBaseURLRequired = errors.New("remote API base URL is required")

// Client is a remote API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    trimmed,
		logger:     logger.With().Str("component", "api-client").Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// WithToken returns a copy of the client that authenticates as the bearer of
// token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = strings.TrimSpace(token)
	return &clone
}

// errorEnvelope is the error body returned by the remote API.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Msg("remote API unreachable")
		return &model.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("remote API call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn().Err(err).Str("op", op).Int("status", resp.StatusCode).Msg("remote API response undecodable")
		return &model.MalformedResponseError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	remote := &model.RemoteError{StatusCode: resp.StatusCode}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		remote.Code = env.Code
		remote.Message = env.Message
		remote.Detail = env.Error
		if remote.Message == "" {
			remote.Message = env.Error
		}
	} else {
		remote.Message = strings.TrimSpace(string(raw))
	}

	if remote.Message == "" {
		remote.Message = http.StatusText(resp.StatusCode)
	}
	return remote
}
