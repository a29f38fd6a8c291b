package config

import (
	"testing"
	"time"
)

func TestNewTestConfig(t *testing.T) {
	cfg := NewTestConfig().Build()

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if _, ok := cfg.Providers["openai"]; !ok {
		t.Error("expected openai provider, got none")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected test config to be valid, got %v", err)
	}
}

func TestConfigBuilder(t *testing.T) {
	bedrock := ProviderConfig{
		Type:       "bedrock",
		Region:     "eu-west-1",
		Model:      "anthropic.claude-3-haiku-20240307-v1:0",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
	}

	cfg := NewTestConfig().
		WithListenAddress("0.0.0.0:9090").
		WithProvider("bedrock", bedrock).
		WithStorageBackend("memory").
		Build()

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if got := cfg.Providers["bedrock"]; got != bedrock {
		t.Errorf("expected %+v, got %+v", bedrock, got)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected backend memory, got %q", cfg.Storage.Backend)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected config to be valid, got %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"cors enabled", cfg.Server.CORS.Enabled, true},
		{"wal mode", cfg.Storage.SQLite.WALMode, true},
		{"redact pii", cfg.Telemetry.Logging.RedactPII, true},
		{"metrics enabled", cfg.Telemetry.Metrics.Enabled, true},
		{"retention days", cfg.Storage.Retention.Days, DefaultRetentionDays},
		{"sqlite driver", cfg.Storage.SQLite.Driver, DefaultSQLiteDriver},
		{"bracket mode", cfg.Generation.Recovery.BracketMode, "greedy"},
		{"primary field", cfg.Generation.Recovery.PrimaryField, "title"},
		{"body field", cfg.Generation.Recovery.BodyField, "specs"},
		{"preview length", cfg.Generation.Recovery.PreviewLength, 200},
		{"max body bytes", cfg.Server.MaxBodyBytes, DefaultMaxBodyBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}

func TestApplyDefaults_Providers(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"bedrock": {},
		"google":  {BaseURL: "https://generativelanguage.googleapis.com"},
		"local":   {BaseURL: "http://localhost:11434/v1", Timeout: 5 * time.Second},
	}}
	ApplyDefaults(cfg)

	if got := cfg.Providers["bedrock"]; got.Type != "bedrock" || got.Region != DefaultBedrockRegion {
		t.Errorf("expected bedrock type and default region, got %+v", got)
	}
	if got := cfg.Providers["google"].Type; got != "gemini" {
		t.Errorf("expected google to map to gemini, got %q", got)
	}
	local := cfg.Providers["local"]
	if local.Type != "openai" {
		t.Errorf("expected unknown names to default to openai, got %q", local.Type)
	}
	if local.Timeout != 5*time.Second {
		t.Errorf("expected explicit timeout to be kept, got %v", local.Timeout)
	}
	if local.MaxRetries != DefaultProviderMaxRetries {
		t.Errorf("expected max retries %d, got %d", DefaultProviderMaxRetries, local.MaxRetries)
	}
}
