package icn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

// Client downloads the ICN export over HTTP with retry and rate limiting.
type Client struct {
	url        string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	retry      RetryConfig
	logger     *zap.Logger
}

type Option func(*Client)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	StatusCodes map[int]struct{}
}

// StatusError is returned when the export endpoint answers with a non-2xx
// status after all retries.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("icn: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("icn: http status %d: %s", e.StatusCode, e.Body)
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithMinInterval spaces requests at least interval apart, retries included.
func WithMinInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(url string, opts ...Option) *Client {
	client := &Client{
		url:        url,
		httpClient: http.DefaultClient,
		userAgent:  "icnatlas-loader/0.1",
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    5 * time.Second,
			StatusCodes: map[int]struct{}{
				http.StatusTooManyRequests:     {},
				http.StatusInternalServerError: {},
				http.StatusBadGateway:          {},
				http.StatusServiceUnavailable:  {},
				http.StatusGatewayTimeout:      {},
			},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Fetch downloads and decodes the export. It returns the items and the
// SHA-256 digest of the response body.
func (c *Client) Fetch(ctx context.Context) ([]model.RawItem, string, error) {
	if c == nil {
		return nil, "", eris.New("icn: client is nil")
	}
	if strings.TrimSpace(c.url) == "" {
		return nil, "", eris.New("icn: export url is required")
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	maxAttempts := c.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return nil, "", eris.Wrap(err, "icn: build request")
		}
		req.Header.Set("Accept", "application/json")
		if strings.TrimSpace(c.userAgent) != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		statusCode, body, err := c.doRequest(ctx, req)
		if err == nil && statusCode >= 200 && statusCode < 300 {
			return ReadAll(bytes.NewReader(body))
		}

		lastErr = err
		if !c.shouldRetry(statusCode, err) || attempt == maxAttempts {
			if err != nil {
				return nil, "", eris.Wrap(err, "icn: fetch export")
			}
			return nil, "", &StatusError{StatusCode: statusCode, Body: snippet(body)}
		}

		delay := c.retryDelay(attempt)
		c.logger.Warn("icn: retrying export download",
			zap.Int("attempt", attempt),
			zap.Int("status", statusCode),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, "", err
		}
	}

	if lastErr != nil {
		return nil, "", lastErr
	}
	return nil, "", eris.New("icn: request failed")
}

func (c *Client) doRequest(ctx context.Context, req *http.Request) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Client) shouldRetry(statusCode int, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return true
	}
	_, ok := c.retry.StatusCodes[statusCode]
	return ok
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return c.retry.BaseDelay
	}
	delay := c.retry.BaseDelay << (attempt - 1)
	if delay > c.retry.MaxDelay {
		delay = c.retry.MaxDelay
	}
	if delay <= 0 {
		return 200 * time.Millisecond
	}
	return delay
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
