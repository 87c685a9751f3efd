package verifyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/florianilch/preverify/internal/voter"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 1 << 20
)

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds configuration for New.
type clientConfig struct {
	baseTransport   http.RoundTripper
	timeout         time.Duration
	maxRetries      uint
	initialInterval time.Duration
	credentials     *clientcredentials.Config
}

// WithTransport sets a custom base transport for API requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.baseTransport = transport
	}
}

// WithTimeout bounds each logical call including its retries.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithMaxRetries sets how often a call is retried after a network-level failure.
func WithMaxRetries(n uint) Option {
	return func(c *clientConfig) {
		c.maxRetries = n
	}
}

// WithRetryInterval sets the initial backoff interval between retries.
func WithRetryInterval(d time.Duration) Option {
	return func(c *clientConfig) {
		c.initialInterval = d
	}
}

// WithClientCredentials authenticates requests with OAuth2 client credentials.
func WithClientCredentials(cfg *clientcredentials.Config) Option {
	return func(c *clientConfig) {
		c.credentials = cfg
	}
}

// Client calls the voter verification service. It holds no per-voter state
// and is safe for concurrent use.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	timeout         time.Duration
	maxRetries      uint
	initialInterval time.Duration
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	cfg := &clientConfig{
		baseTransport:   http.DefaultTransport,
		timeout:         defaultTimeout,
		maxRetries:      defaultMaxRetries,
		initialInterval: backoff.DefaultInitialInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := cfg.baseTransport
	if cfg.credentials != nil {
		// clientcredentials fetches tokens through the client stored in the context
		tokenClient := &http.Client{Timeout: cfg.timeout, Transport: cfg.baseTransport}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, tokenClient)
		transport = &oauth2.Transport{
			Source: cfg.credentials.TokenSource(tokenCtx),
			Base:   cfg.baseTransport,
		}
	}

	return &Client{
		baseURL:         base,
		httpClient:      &http.Client{Transport: transport},
		timeout:         cfg.timeout,
		maxRetries:      cfg.maxRetries,
		initialInterval: cfg.initialInterval,
	}, nil
}

// RequestPreVerificationToken asks the service for a pre-verification token for id.
func (c *Client) RequestPreVerificationToken(ctx context.Context, id voter.ID) (*voter.TokenResponse, error) {
	const op = "request pre-verification token"

	var resp voter.TokenResponse
	if err := c.call(ctx, op, http.MethodPost, id, "pre-verification-token", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Op: op, StatusCode: http.StatusOK, Err: err}
	}
	return &resp, nil
}

// statusUpdate is the request body of UpdateVoterStatus.
type statusUpdate struct {
	Status voter.Status `json:"status"`
}

// UpdateVoterStatus sets the voter's status on the service.
func (c *Client) UpdateVoterStatus(ctx context.Context, id voter.ID, status voter.Status) error {
	if !status.Valid() {
		return fmt.Errorf("update voter status: unknown status %q: %w", status, ErrInvalidArgument)
	}
	return c.call(ctx, "update voter status", http.MethodPut, id, "status", statusUpdate{Status: status}, nil)
}

// call performs one logical request, retrying network-level failures.
// The response is decoded into out when out is non-nil.
func (c *Client) call(ctx context.Context, op, method string, id voter.ID, resource string, in, out any) error {
	if id.Empty() {
		return fmt.Errorf("%s: empty voter id: %w", op, ErrInvalidArgument)
	}

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	endpoint := c.baseURL.JoinPath("voters", url.PathEscape(string(id)), resource).String()
	idempotencyKey := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initialInterval

	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			err := c.attempt(ctx, op, method, endpoint, idempotencyKey, payload, out)
			if err != nil && !IsKind(err, KindNetwork) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.DebugContext(ctx, "retrying verification api call", "op", op, "error", err, "backoff", next)
		}),
	)
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return err
	}
	if ctx.Err() != nil {
		// Retry gave up on the context before an attempt produced a result
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	// Failed before anything was sent
	return err
}

func (c *Client) attempt(ctx context.Context, op, method, endpoint, idempotencyKey string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Idempotency-Key", idempotencyKey)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// handled below
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &Error{Kind: KindNetwork, Op: op, StatusCode: resp.StatusCode}
	default:
		return &Error{Kind: KindRejected, Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return &Error{Kind: KindInvalidResponse, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
