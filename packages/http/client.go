package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultRetryDelay is the base delay for exponential backoff between retries
	DefaultRetryDelay = 500 * time.Millisecond
	// DefaultMaxRetryDelay caps the backoff delay
	DefaultMaxRetryDelay = 10 * time.Second
	// DefaultUserAgent is sent when no user agent is configured
	DefaultUserAgent = "branchspec"
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

type Client struct {
	httpClient     *http.Client
	baseURL        string
	timeout        time.Duration
	userAgent      string
	defaultHeaders map[string]string
	maxRetries     int
	retryDelay     time.Duration
	maxRetryDelay  time.Duration
	limiter        *rate.Limiter
	logger         *zap.Logger
	sleep          func(ctx context.Context, d time.Duration) error
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		userAgent:      DefaultUserAgent,
		defaultHeaders: make(map[string]string),
		retryDelay:     DefaultRetryDelay,
		maxRetryDelay:  DefaultMaxRetryDelay,
		logger:         zap.NewNop(),
		sleep:          sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		MaxIdleConns:    DefaultMaxIdleConns,
		IdleConnTimeout: DefaultIdleConnTimeout,
	}

	// A zero timeout leaves the request unbounded.
	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}

	return c
}

// WithBaseURL sets the scheme and host every request path is resolved against
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithBearerToken sends the token as an Authorization bearer credential.
// An empty token leaves requests unauthenticated.
func WithBearerToken(token string) ClientOption {
	return func(c *Client) {
		if token != "" {
			c.defaultHeaders["Authorization"] = "Bearer " + token
		}
	}
}

// WithRetry enables up to maxRetries additional attempts on transport errors,
// 5xx and 429 responses, waiting delay*2^attempt between attempts.
func WithRetry(maxRetries int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if maxRetries > 0 {
			c.maxRetries = maxRetries
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithMaxRetryDelay caps the exponential backoff delay
func WithMaxRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.maxRetryDelay = d
		}
	}
}

// WithRateLimit throttles requests to rps requests per second
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Do executes the request, retrying according to the client's retry policy.
// It returns the last response for any status code; non-2xx statuses are not
// treated as errors here.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	var (
		resp *Response
		err  error
	)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			c.logger.Warn("retrying request",
				zap.String("method", req.Method),
				zap.String("url", c.resolveURL(req.URL)),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(errOrStatus(resp, err)),
			)
			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				return nil, &TransportError{Method: req.Method, URL: c.resolveURL(req.URL), Err: sleepErr}
			}
		}

		if c.limiter != nil {
			if waitErr := c.limiter.Wait(ctx); waitErr != nil {
				return nil, &TransportError{Method: req.Method, URL: c.resolveURL(req.URL), Err: waitErr}
			}
		}

		resp, err = c.doRequest(ctx, req)
		if !c.shouldRetry(ctx, resp, err) {
			break
		}
	}

	return resp, err
}

// Get performs a GET against path. Non-2xx responses are returned alongside
// an *HTTPError carrying the status code and a truncated body.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	req := NewRequest(http.MethodGet, path)
	for k, v := range headers {
		req.SetHeader(k, v)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return resp, NewHTTPError(http.MethodGet, c.resolveURL(path), resp)
	}
	return resp, nil
}

// PostJSON posts v as a JSON body. Non-2xx responses are returned alongside
// an *HTTPError, as with Get.
func (c *Client) PostJSON(ctx context.Context, path string, v any) (*Response, error) {
	req := NewRequest(http.MethodPost, path)
	if err := req.SetJSONBody(v); err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return resp, NewHTTPError(http.MethodPost, c.resolveURL(path), resp)
	}
	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, req *Request) (*Response, error) {
	target := c.resolveURL(req.URL)
	if err := ValidateURL(target); err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, &TransportError{Method: req.Method, URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: target, Err: err}
	}

	headers := make(map[string]string)
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	c.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

func (c *Client) shouldRetry(ctx context.Context, resp *Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		var transportErr *TransportError
		return errors.As(err, &transportErr)
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.IsServerError()
}

func (c *Client) backoff(retry int) time.Duration {
	delay := c.retryDelay
	for i := 0; i < retry; i++ {
		delay *= 2
		if delay >= c.maxRetryDelay {
			return c.maxRetryDelay
		}
	}
	if delay > c.maxRetryDelay {
		return c.maxRetryDelay
	}
	return delay
}

func (c *Client) resolveURL(path string) string {
	if c.baseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errOrStatus(resp *Response, err error) error {
	if err != nil {
		return err
	}
	if resp != nil {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	// Check for valid scheme
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	// Check for valid host
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
