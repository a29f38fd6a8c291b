package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/providers/anthropic"
	"mercator-hq/quill/pkg/sigv4"
)

const (
	// DefaultRegion is used when the configuration names none.
	DefaultRegion = "us-east-1"

	// AnthropicVersion is the body version Bedrock expects for Anthropic
	// models.
	AnthropicVersion = "bedrock-2023-05-31"

	// Service is the signing service name for both the runtime and
	// control-plane endpoints.
	Service = "bedrock"
)

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides the signing clock.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// WithSignObserver registers fn to be called with the service name each
// time a request is signed.
func WithSignObserver(fn func(service string)) Option {
	return func(p *Provider) {
		p.onSign = fn
	}
}

// Provider invokes Anthropic models on AWS Bedrock. Requests are signed
// with AWS Signature Version 4.
type Provider struct {
	*providers.HTTPProvider

	runtimeURL *url.URL
	controlURL *url.URL

	now    func() time.Time
	onSign func(service string)
}

// NewProvider creates a Bedrock provider. BaseURL, when set, replaces both
// the runtime and control-plane endpoints.
func NewProvider(config providers.ProviderConfig, opts ...Option) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: providers.TypeBedrock,
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	creds := sigv4.Credentials{AccessKeyID: config.AccessKeyID, SecretAccessKey: config.SecretAccessKey}
	if err := creds.Validate(); err != nil {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "access_key_id",
			Message:  err.Error(),
		}
	}
	if config.Region == "" {
		config.Region = DefaultRegion
	}
	if config.Type == "" {
		config.Type = providers.TypeBedrock
	}

	runtimeBase := fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", config.Region)
	controlBase := fmt.Sprintf("https://bedrock.%s.amazonaws.com", config.Region)
	if config.BaseURL != "" {
		runtimeBase, controlBase = config.BaseURL, config.BaseURL
	}

	runtimeURL, err := url.Parse(runtimeBase)
	if err != nil {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "base_url", Message: err.Error()}
	}
	controlURL, err := url.Parse(controlBase)
	if err != nil {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "base_url", Message: err.Error()}
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
		runtimeURL:   runtimeURL,
		controlURL:   controlURL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.SetHealthProbe(p.HealthCheck)

	slog.Info("Bedrock provider initialized",
		"provider", config.Name,
		"region", config.Region,
		"endpoint", runtimeURL.Host,
	)

	return p, nil
}

// InvokeURL returns the invoke endpoint for model.
func (p *Provider) InvokeURL(model string) *url.URL {
	u := *p.runtimeURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/model/" + model + "/invoke"
	u.RawPath = ""
	return &u
}

// sign returns the headers for a request carrying exactly body.
func (p *Provider) sign(method string, u *url.URL, body []byte, service string) map[string]string {
	cfg := p.GetConfig()
	r := &http.Request{Method: method, URL: u, Header: make(http.Header)}
	sigv4.SignHTTPRequest(r, body, sigv4.Credentials{
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	}, cfg.Region, service, p.now())
	if p.onSign != nil {
		p.onSign(service)
	}

	return map[string]string{
		"Content-Type":            r.Header.Get("Content-Type"),
		sigv4.HeaderDate:          r.Header.Get(sigv4.HeaderDate),
		sigv4.HeaderAuthorization: r.Header.Get(sigv4.HeaderAuthorization),
	}
}

// SendCompletion invokes the model. The body is encoded and signed once;
// retries resend the identical bytes and headers.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p.ResolveModel(req)
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	body, err := anthropic.BuildRequest(req)
	if err != nil {
		return nil, err
	}
	body.Model = ""
	body.AnthropicVersion = AnthropicVersion

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := p.InvokeURL(req.Model)
	headers := p.sign(http.MethodPost, endpoint, payload, Service)

	var msgResp anthropic.MessagesResponse
	if err := p.DoRawJSONRequest(ctx, http.MethodPost, endpoint.String(), payload, &msgResp, headers); err != nil {
		return nil, err
	}

	resp, err := anthropic.ToCompletion(&msgResp)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.GetName(), Cause: err}
	}
	if resp.Model == "" {
		resp.Model = req.Model
	}

	slog.Debug("completion request succeeded",
		"provider", p.GetName(),
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
	)

	return resp, nil
}

// HealthCheck lists foundation models with a signed GET.
func (p *Provider) HealthCheck(ctx context.Context) error {
	u := *p.controlURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/foundation-models"

	headers := p.sign(http.MethodGet, &u, nil, Service)
	resp, err := p.DoRequest(ctx, http.MethodGet, u.String(), nil, headers)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
