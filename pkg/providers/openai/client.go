package openai

import (
	"context"
	"log/slog"
	"net/http"

	"mercator-hq/quill/pkg/providers"
)

// DefaultBaseURL is the public OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Provider is the OpenAI Chat Completions adapter. Any OpenAI-compatible
// endpoint works when BaseURL points at it.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates an OpenAI provider.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: providers.TypeOpenAI,
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for OpenAI",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Type == "" {
		config.Type = providers.TypeOpenAI
	}

	p := &Provider{HTTPProvider: providers.NewHTTPProvider(config)}
	p.SetHealthProbe(p.HealthCheck)

	slog.Info("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type":  "application/json",
	}
}

// SendCompletion sends a Chat Completions request.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p.ResolveModel(req)
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	var chatResp ChatResponse
	url := p.GetConfig().BaseURL + "/chat/completions"
	if err := p.DoJSONRequest(ctx, http.MethodPost, url, transformRequest(req), &chatResp, p.headers()); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&chatResp)
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
	resp, err := p.DoRequest(ctx, http.MethodGet, p.GetConfig().BaseURL+"/models", nil, p.headers())
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
