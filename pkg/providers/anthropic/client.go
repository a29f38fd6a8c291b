package anthropic

import (
	"context"
	"log/slog"
	"net/http"

	"mercator-hq/quill/pkg/providers"
)

const (
	// DefaultBaseURL is the public Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultAnthropicVersion is the API version header value.
	DefaultAnthropicVersion = "2023-06-01"
)

// Provider is the Anthropic Messages API adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates an Anthropic provider.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: providers.TypeAnthropic,
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Type == "" {
		config.Type = providers.TypeAnthropic
	}

	p := &Provider{HTTPProvider: providers.NewHTTPProvider(config)}
	p.SetHealthProbe(p.HealthCheck)

	slog.Info("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.GetConfig().APIKey,
		"anthropic-version": DefaultAnthropicVersion,
		"Content-Type":      "application/json",
	}
}

// SendCompletion sends a Messages API request.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p.ResolveModel(req)
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	body, err := BuildRequest(req)
	if err != nil {
		return nil, err
	}

	var msgResp MessagesResponse
	url := p.GetConfig().BaseURL + "/v1/messages"
	if err := p.DoJSONRequest(ctx, http.MethodPost, url, body, &msgResp, p.headers()); err != nil {
		return nil, err
	}

	resp, err := ToCompletion(&msgResp)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.GetName(), Cause: err}
	}

	slog.Debug("completion request succeeded",
		"provider", p.GetName(),
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
	)

	return resp, nil
}

// HealthCheck lists models, which requires a valid key but no tokens.
func (p *Provider) HealthCheck(ctx context.Context) error {
	resp, err := p.DoRequest(ctx, http.MethodGet, p.GetConfig().BaseURL+"/v1/models", nil, p.headers())
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
