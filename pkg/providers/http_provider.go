package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// unhealthyThreshold is the number of consecutive failures after which
	// a provider is marked unhealthy.
	unhealthyThreshold = 3

	defaultRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 10 * time.Second

	// maxErrorBody bounds how much of an upstream error body is kept.
	maxErrorBody = 4 << 10
)

// HTTPProvider is the shared base for HTTP adapters: pooled client, retries
// with exponential backoff, health accounting.
//
// Adapters embed *HTTPProvider and implement SendCompletion and HealthCheck.
type HTTPProvider struct {
	config ProviderConfig
	client *http.Client

	health   ProviderHealth
	healthMu sync.RWMutex

	// probe is the adapter's health check used by the background checker.
	probe func(ctx context.Context) error

	stopOnce           sync.Once
	stopHealthCheck    chan struct{}
	healthCheckStopped chan struct{}
	checkerStarted     bool
}

// NewHTTPProvider creates a base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaultRetryDelay
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	now := time.Now()
	return &HTTPProvider{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		health: ProviderHealth{
			IsHealthy:             true,
			LastCheck:             now,
			LastSuccessfulRequest: now,
		},
		stopHealthCheck:    make(chan struct{}),
		healthCheckStopped: make(chan struct{}),
	}
}

// GetName returns the provider's configured name.
func (p *HTTPProvider) GetName() string {
	return p.config.Name
}

// GetType returns the provider's type.
func (p *HTTPProvider) GetType() string {
	return p.config.Type
}

// GetConfig returns the provider's configuration.
func (p *HTTPProvider) GetConfig() ProviderConfig {
	return p.config
}

// IsHealthy returns the current health status.
func (p *HTTPProvider) IsHealthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health.IsHealthy
}

// GetHealth returns detailed health information.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// ResolveModel fills req.Model from the configured default when empty.
func (p *HTTPProvider) ResolveModel(req *CompletionRequest) {
	if req != nil && req.Model == "" {
		req.Model = p.config.Model
	}
}

// SetHealthProbe registers the adapter-specific check run by the
// background health checker.
func (p *HTTPProvider) SetHealthProbe(probe func(ctx context.Context) error) {
	p.probe = probe
}

func (p *HTTPProvider) updateHealth(success bool, err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.LastCheck = time.Now()

	if success {
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccessfulRequest = p.health.LastCheck
		return
	}

	p.health.ConsecutiveFailures++
	p.health.LastError = err
	if p.health.ConsecutiveFailures >= unhealthyThreshold && p.health.IsHealthy {
		p.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", p.config.Name,
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

func (p *HTTPProvider) recordRequest(success bool) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	if !success {
		p.health.FailedRequests++
	}
}

// DoRequest performs an HTTP request, retrying 5xx responses and transport
// errors with exponential backoff. The same body and headers are sent on
// every attempt. The caller closes the returned response body.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	attempts := uint(p.config.MaxRetries) + 1

	resp, err := retry.DoWithData(
		func() (*http.Response, error) {
			return p.attempt(ctx, method, url, body, headers)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.config.RetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("provider request failed, will retry",
				"provider", p.config.Name,
				"attempt", n+1,
				"max_attempts", attempts,
				"error", err,
			)
		}),
	)
	if err != nil {
		var timeoutErr *TimeoutError
		if ctx.Err() != nil && !errors.As(err, &timeoutErr) {
			err = &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout}
		}
		p.updateHealth(false, err)
		return nil, err
	}

	p.updateHealth(true, nil)
	return resp, nil
}

// attempt performs a single request and maps the outcome to a typed error.
func (p *HTTPProvider) attempt(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &ConfigError{Provider: p.config.Name, Field: "base_url", Message: err.Error()}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("sending request to provider",
		"provider", p.config.Name,
		"method", method,
		"url", url,
	)

	resp, err := p.client.Do(req)
	if err != nil {
		p.recordRequest(false)
		if ctx.Err() != nil {
			return nil, &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout}
		}
		return nil, &ProviderError{Provider: p.config.Name, Message: "request failed", Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.recordRequest(true)
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	p.recordRequest(false)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthError{Provider: p.config.Name, Message: string(errorBody)}
	case http.StatusTooManyRequests:
		return nil, &RateLimitError{
			Provider:   p.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    string(errorBody),
		}
	default:
		return nil, &ProviderError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			Message:    string(errorBody),
		}
	}
}

// DoJSONRequest marshals reqBody, performs the request and decodes the
// response into respBody.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody, respBody any, headers map[string]string) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	return p.DoRawJSONRequest(ctx, method, url, bodyBytes, respBody, headers)
}

// DoRawJSONRequest sends an already encoded body and decodes the JSON
// response into respBody. Adapters that sign the exact payload bytes use
// this form.
func (p *HTTPProvider) DoRawJSONRequest(ctx context.Context, method, url string, body []byte, respBody any, headers map[string]string) error {
	resp, err := p.DoRequest(ctx, method, url, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: p.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    p.config.Name,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}

	return nil
}

// Close stops the health checker, if running, and releases idle connections.
func (p *HTTPProvider) Close() error {
	p.stopOnce.Do(func() {
		close(p.stopHealthCheck)
	})

	if p.checkerStarted {
		select {
		case <-p.healthCheckStopped:
		case <-time.After(5 * time.Second):
			slog.Warn("health checker did not stop in time", "provider", p.config.Name)
		}
	}

	p.client.CloseIdleConnections()

	slog.Debug("provider closed", "provider", p.config.Name)
	return nil
}

// parseRetryAfter parses a Retry-After header in seconds or HTTP-date form.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}
