package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/optrun/pmccscan/internal/models"
)

// ClientConfig configures one adapter's HTTP transport.
type ClientConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Token     string        `yaml:"-"`
	Timeout   time.Duration `yaml:"timeout"`
	RPS       float64       `yaml:"rps"`
	Burst     int           `yaml:"burst"`
	UserAgent string        `yaml:"user_agent"`
}

// RESTClient is the rate-limited HTTP helper shared by the adapters.
// It classifies failures into the provider error taxonomy and records
// outcomes on the adapter's health tracker.
type RESTClient struct {
	provider string
	config   ClientConfig
	http     *http.Client
	limiter  *rate.Limiter
	health   *HealthTracker
}

// NewRESTClient builds a client with a 30s default timeout and the
// configured request pacing.
func NewRESTClient(provider string, config ClientConfig, health *HealthTracker) *RESTClient {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RPS <= 0 {
		config.RPS = 5
	}
	if config.Burst <= 0 {
		config.Burst = int(config.RPS) * 2
	}
	if config.UserAgent == "" {
		config.UserAgent = "pmccscan/1.0"
	}

	return &RESTClient{
		provider: provider,
		config:   config,
		http:     &http.Client{Timeout: config.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(config.RPS), config.Burst),
		health:   health,
	}
}

// GetJSON performs a rate-limited GET and decodes the JSON body into out.
func (c *RESTClient) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{
			Provider: c.provider,
			Code:     ErrCodeParse,
			Message:  fmt.Sprintf("unexpected response shape: %v", err),
			Cause:    err,
		}
	}
	return nil
}

// PostJSON performs a rate-limited POST with a JSON body and decodes
// the JSON response into out.
func (c *RESTClient) PostJSON(ctx context.Context, path string, headers map[string]string, payload, out any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return &ProviderError{Provider: c.provider, Code: ErrCodeParse, Message: "failed to encode request body", Cause: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return c.cancelled(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return &ProviderError{Provider: c.provider, Code: ErrCodeAPI, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{
			Provider: c.provider,
			Code:     ErrCodeParse,
			Message:  fmt.Sprintf("unexpected response shape: %v", err),
			Cause:    err,
		}
	}
	return nil
}

func (c *RESTClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.cancelled(err)
	}

	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ProviderError{Provider: c.provider, Code: ErrCodeAPI, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	return c.do(req)
}

// do executes the request, classifies the outcome, and records it on
// the health tracker.
func (c *RESTClient) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)

	if err != nil {
		perr := c.classifyTransport(req.Context(), err)
		c.health.RecordFailure(perr, latency)
		return nil, perr
	}
	defer resp.Body.Close()

	c.recordRateLimitHeaders(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		perr := &ProviderError{Provider: c.provider, Code: ErrCodeNetwork, Message: "failed to read response body", Temporary: true, Cause: err}
		c.health.RecordFailure(perr, latency)
		return nil, perr
	}

	if resp.StatusCode >= 400 {
		perr := c.classifyStatus(resp, body)
		c.health.RecordFailure(perr, latency)
		return nil, perr
	}

	c.health.RecordSuccess(latency)
	return body, nil
}

func (c *RESTClient) cancelled(err error) *ProviderError {
	return &ProviderError{
		Provider: c.provider,
		Code:     ErrCodeTimeout,
		Message:  "request cancelled",
		Cause:    err,
	}
}

func (c *RESTClient) classifyTransport(ctx context.Context, err error) *ProviderError {
	code := ErrCodeNetwork
	if ctx.Err() != nil {
		code = ErrCodeTimeout
	}
	return &ProviderError{
		Provider:  c.provider,
		Code:      code,
		Message:   err.Error(),
		Temporary: true,
		Cause:     err,
	}
}

func (c *RESTClient) classifyStatus(resp *http.Response, body []byte) *ProviderError {
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}

	perr := &ProviderError{
		Provider:   c.provider,
		HTTPStatus: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg),
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		perr.Code = ErrCodeAuth
	case resp.StatusCode == http.StatusTooManyRequests:
		perr.Code = ErrCodeRateLimit
		perr.RateLimited = true
		perr.Temporary = true
		perr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode == http.StatusNotFound:
		perr.Code = ErrCodeNoData
	case resp.StatusCode >= 500:
		perr.Code = ErrCodeAPI
		perr.Temporary = true
	default:
		perr.Code = ErrCodeAPI
	}
	return perr
}

func (c *RESTClient) recordRateLimitHeaders(resp *http.Response) {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return
	}
	n, err := strconv.Atoi(remaining)
	if err != nil {
		return
	}
	info := models.RateLimitInfo{Remaining: n}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if ts, err := strconv.ParseInt(reset, 10, 64); err == nil {
			info.Reset = time.Unix(ts, 0).UTC()
		}
	}
	c.health.RecordRateLimit(info)
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
