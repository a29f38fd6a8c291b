package gemini

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"mercator-hq/quill/pkg/providers"
)

// DefaultBaseURL is the public Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Provider is the Gemini generateContent adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a Gemini provider.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: providers.TypeGemini,
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Gemini",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Type == "" {
		config.Type = providers.TypeGemini
	}

	p := &Provider{HTTPProvider: providers.NewHTTPProvider(config)}
	p.SetHealthProbe(p.HealthCheck)

	slog.Info("Gemini provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"x-goog-api-key": p.GetConfig().APIKey,
		"Content-Type":   "application/json",
	}
}

// SendCompletion sends a generateContent request.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p.ResolveModel(req)
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}

	endpoint := p.GetConfig().BaseURL + "/v1beta/models/" + url.PathEscape(req.Model) + ":generateContent"

	var genResp GenerateResponse
	if err := p.DoJSONRequest(ctx, http.MethodPost, endpoint, transformRequest(req), &genResp, p.headers()); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&genResp, req.Model)
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

// HealthCheck lists models.
func (p *Provider) HealthCheck(ctx context.Context) error {
	resp, err := p.DoRequest(ctx, http.MethodGet, p.GetConfig().BaseURL+"/v1beta/models", nil, p.headers())
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
