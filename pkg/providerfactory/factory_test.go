package providerfactory

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/quill/internal/providertest"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/providers"
)

func TestNewProvider_Types(t *testing.T) {
	tests := []struct {
		name     string
		config   providers.ProviderConfig
		wantType string
	}{
		{
			name:     "openai",
			config:   providers.ProviderConfig{Name: "openai", Type: providers.TypeOpenAI, APIKey: "k"},
			wantType: providers.TypeOpenAI,
		},
		{
			name:     "anthropic",
			config:   providers.ProviderConfig{Name: "anthropic", Type: providers.TypeAnthropic, APIKey: "k"},
			wantType: providers.TypeAnthropic,
		},
		{
			name:     "gemini inferred from google",
			config:   providers.ProviderConfig{Name: "google", APIKey: "k"},
			wantType: providers.TypeGemini,
		},
		{
			name: "bedrock",
			config: providers.ProviderConfig{
				Name:            "aws",
				AccessKeyID:     "AKIDEXAMPLE",
				SecretAccessKey: "secret",
			},
			wantType: providers.TypeBedrock,
		},
		{
			name:     "unknown names default to openai-compatible",
			config:   providers.ProviderConfig{Name: "ollama", APIKey: "k", BaseURL: "http://localhost:11434/v1"},
			wantType: providers.TypeOpenAI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config)
			if err != nil {
				t.Fatalf("NewProvider() failed: %v", err)
			}
			defer provider.Close()

			if provider.GetType() != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, provider.GetType())
			}
			if provider.GetName() != tt.config.Name {
				t.Errorf("expected name %s, got %s", tt.config.Name, provider.GetName())
			}
		})
	}
}

func TestNewProvider_UnsupportedType(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{Name: "x", Type: "cohere", APIKey: "k"})

	var ce *providers.ConfigError
	if !errors.As(err, &ce) || ce.Field != "type" {
		t.Fatalf("expected type ConfigError, got %v", err)
	}
}

func TestNewProvider_MissingCredentials(t *testing.T) {
	_, err := NewProvider(providers.ProviderConfig{Name: "openai"})

	var ce *providers.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected wrapped ConfigError, got %T: %v", err, err)
	}
}

func TestNewProvider_SignObserver(t *testing.T) {
	mock := providertest.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/model/m/invoke", providertest.MockResponse{
		StatusCode: http.StatusOK,
		Body:       providertest.AnthropicResponse("ok", "m"),
	})

	var signed int32
	provider, err := NewProvider(providers.ProviderConfig{
		Name:            "bedrock",
		BaseURL:         mock.URL(),
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Model:           "m",
		Timeout:         time.Second,
	}, WithSignObserver(func(string) { atomic.AddInt32(&signed, 1) }))
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	defer provider.Close()

	if _, err := provider.SendCompletion(context.Background(), providertest.UserRequest("", "hi")); err != nil {
		t.Fatalf("SendCompletion failed: %v", err)
	}
	if atomic.LoadInt32(&signed) != 1 {
		t.Errorf("expected observer to be called once, got %d", signed)
	}
}

func TestFromConfig(t *testing.T) {
	got := FromConfig("bedrock", config.ProviderConfig{
		Type:            "bedrock",
		Model:           "anthropic.claude-3-haiku",
		Region:          "eu-west-1",
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		Timeout:         30 * time.Second,
		MaxRetries:      2,
	})

	want := providers.ProviderConfig{
		Name:            "bedrock",
		Type:            "bedrock",
		Model:           "anthropic.claude-3-haiku",
		Region:          "eu-west-1",
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		Timeout:         30 * time.Second,
		MaxRetries:      2,
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
