// Package webhook performs the outbound HTTP calls of WEBHOOK workflow steps.
package webhook

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

	"golang.org/x/time/rate"
)

// maxResponseBytes bounds how much of a response body is kept in step output
const maxResponseBytes = 64 << 10

// ErrUnexpectedStatus is returned when the response status does not match
var ErrUnexpectedStatus = errors.New("webhook: unexpected status")

// Config controls throttling and timeouts shared by all calls
type Config struct {
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
	UserAgent     string
}

// Request describes one call
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is sent verbatim when it is a string, JSON-encoded otherwise
	Body           any
	ExpectedStatus int
}

// Response is what the step records in its output
type Response struct {
	StatusCode int           `json:"status"`
	Body       string        `json:"body,omitempty"`
	Truncated  bool          `json:"truncated,omitempty"`
	Duration   time.Duration `json:"-"`
}

// Caller sends webhooks through a shared token-bucket limiter
type Caller struct {
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
}

// NewCaller creates a Caller. A zero rate disables throttling.
func NewCaller(cfg Config, client *http.Client) *Caller {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(cfg.RatePerSecond))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "miv-workflow/1.0"
	}
	return &Caller{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
	}
}

// Call waits for a rate token and performs the request under the per-call
// timeout. A status outside 2xx, or different from ExpectedStatus when set,
// returns the response together with ErrUnexpectedStatus.
func (c *Caller) Call(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("webhook: rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("webhook: build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("webhook: %s %s: %w", method, req.URL, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("webhook: read response: %w", err)
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Duration: time.Since(start)}
	if len(raw) > maxResponseBytes {
		raw = raw[:maxResponseBytes]
		resp.Truncated = true
	}
	resp.Body = string(raw)

	if !statusOK(resp.StatusCode, req.ExpectedStatus) {
		return resp, fmt.Errorf("%w: got %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp, nil
}

func statusOK(got, expected int) bool {
	if expected > 0 {
		return got == expected
	}
	return got >= 200 && got < 300
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		if b == "" {
			return nil, "", nil
		}
		if json.Valid([]byte(b)) {
			return strings.NewReader(b), "application/json", nil
		}
		return strings.NewReader(b), "text/plain; charset=utf-8", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("webhook: encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
