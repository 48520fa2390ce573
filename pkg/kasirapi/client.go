package kasirapi

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

	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultTimeout            = 10 * time.Second
	defaultBreakerMaxFailures = 5
	defaultBreakerOpenTimeout = 30 * time.Second
	responseBodyReadLimit     = 4 << 20
)

var errBaseURLRequired = errors.New("kasir backend base url is required")

// Client talks to the Kasir REST backend on behalf of the cashier whose bearer
// credential travels in the request context.
type Client struct {
	httpClient         *http.Client
	baseURL            string
	breakerMaxFailures uint32
	breakerOpenTimeout time.Duration
	breaker            *gobreaker.CircuitBreaker[*exchange]
	logg               *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBreaker tunes the read-path circuit breaker: it opens after maxFailures
// consecutive failures and probes again after openTimeout.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(c *Client) {
		if maxFailures > 0 {
			c.breakerMaxFailures = maxFailures
		}
		if openTimeout > 0 {
			c.breakerOpenTimeout = openTimeout
		}
	}
}

// WithLogger reports breaker state changes.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds the backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("parse kasir backend base url: %w", err)
	}

	client := &Client{
		baseURL:            trimmed,
		httpClient:         &http.Client{Timeout: defaultTimeout},
		breakerMaxFailures: defaultBreakerMaxFailures,
		breakerOpenTimeout: defaultBreakerOpenTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	client.breaker = gobreaker.NewCircuitBreaker[*exchange](gobreaker.Settings{
		Name:        "kasir-backend-read",
		MaxRequests: 1,
		Timeout:     client.breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= client.breakerMaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: client.logStateChange,
	})

	return client, nil
}

type exchange struct {
	status int
	body   []byte
}

func (c *Client) logStateChange(name string, from, to gobreaker.State) {
	if c.logg == nil {
		return
	}
	ctx := c.logg.WithFields(context.Background(), map[string]any{
		"breaker": name,
		"from":    from.String(),
		"to":      to.String(),
	})
	if to == gobreaker.StateOpen {
		c.logg.Warn(ctx, "kasir backend breaker opened")
		return
	}
	c.logg.Info(ctx, "kasir backend breaker state changed")
}

// read performs a GET through the circuit breaker and returns the 2xx body.
// Only transport errors and 5xx answers count as breaker failures.
func (c *Client) read(ctx context.Context, path string, query url.Values, action string) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "kasir backend client not configured")
	}
	ex, err := c.breaker.Execute(func() (*exchange, error) {
		ex, err := c.send(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, err
		}
		if ex.status >= http.StatusInternalServerError {
			return nil, newAPIError(http.MethodGet, path, ex.status, ex.body)
		}
		return ex, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "kasir backend temporarily unavailable")
		}
		return nil, transportError(err, action)
	}
	return checkStatus(ex, http.MethodGet, path, action)
}

// write sends a mutating request exactly once, outside the breaker.
func (c *Client) write(ctx context.Context, method, path string, payload any, action string) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "kasir backend client not configured")
	}
	ex, err := c.send(ctx, method, path, nil, payload)
	if err != nil {
		return nil, transportError(err, action)
	}
	return checkStatus(ex, method, path, action)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload any) (*exchange, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal backend request")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := BearerFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}
	return &exchange{status: resp.StatusCode, body: data}, nil
}

func transportError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return mapAPIError(apiErr, action)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action+": kasir backend unreachable")
}

func checkStatus(ex *exchange, method, path, action string) ([]byte, error) {
	if ex.status < 200 || ex.status > 299 {
		return nil, mapAPIError(newAPIError(method, path, ex.status, ex.body), action)
	}
	return ex.body, nil
}

// decodeData unmarshals the payload inside a {"data": ...} envelope, or the
// body itself when the backend answered with a bare object.
func decodeData(body []byte, action string, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return pkgerrors.New(pkgerrors.CodeDependency, "empty "+action+" response")
	}
	payload := body
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		payload = envelope.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+action+" response")
	}
	return nil
}
