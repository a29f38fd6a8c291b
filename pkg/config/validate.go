package config

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateGeneration(&cfg.Generation, cfg.Providers)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	timeouts := map[string]bool{
		"server.read_timeout":     cfg.ReadTimeout < 0,
		"server.write_timeout":    cfg.WriteTimeout < 0,
		"server.idle_timeout":     cfg.IdleTimeout < 0,
		"server.shutdown_timeout": cfg.ShutdownTimeout < 0,
		"server.request_timeout":  cfg.RequestTimeout < 0,
	}
	for _, field := range sortedKeys(timeouts) {
		if timeouts[field] {
			errs = append(errs, FieldError{Field: field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxHeaderBytes < 0 || cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be between 0 and 10MB",
		})
	}
	if cfg.MaxBodyBytes < 0 || cfg.MaxBodyBytes > 64*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be between 0 and 64MB",
		})
	}

	return errs
}

var validProviderTypes = map[string]bool{"openai": true, "anthropic": true, "gemini": true, "bedrock": true}

// validateProviders validates provider configurations. Credentials may be
// empty here; they are often injected from the environment later and the
// adapters reject missing ones at construction.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	for _, name := range sortedKeys(providers) {
		provider := providers[name]
		prefix := fmt.Sprintf("providers.%s", name)

		if !validProviderTypes[provider.Type] {
			errs = append(errs, FieldError{
				Field:   prefix + ".type",
				Message: fmt.Sprintf("invalid provider type %q: must be 'openai', 'anthropic', 'gemini', or 'bedrock'", provider.Type),
			})
		}

		if provider.BaseURL != "" {
			if u, err := url.Parse(provider.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("invalid URL %q", provider.BaseURL),
				})
			}
		} else if provider.Type != "bedrock" && provider.Type != "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required",
			})
		}

		if provider.Type == "bedrock" && provider.Region == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".region",
				Message: "region is required for bedrock providers",
			})
		}

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
		if provider.MaxRetries < 0 || provider.MaxRetries > 10 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max retries must be between 0 and 10",
			})
		}
	}

	return errs
}

func validateGeneration(cfg *GenerationConfig, providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultProvider != "" {
		if _, ok := providers[cfg.DefaultProvider]; !ok {
			errs = append(errs, FieldError{
				Field:   "generation.default_provider",
				Message: fmt.Sprintf("provider %q is not configured", cfg.DefaultProvider),
			})
		}
	}
	if cfg.MaxPromptLength <= 0 {
		errs = append(errs, FieldError{
			Field:   "generation.max_prompt_length",
			Message: "max prompt length must be positive",
		})
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, FieldError{
			Field:   "generation.max_tokens",
			Message: "max tokens must be positive",
		})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "generation.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	r := cfg.Recovery
	if r.PrimaryField == r.BodyField || r.PrimaryField == r.ConfidentField || r.BodyField == r.ConfidentField {
		errs = append(errs, FieldError{
			Field:   "generation.recovery",
			Message: "primary, body and confident fields must be distinct",
		})
	}
	if r.BracketMode != "greedy" && r.BracketMode != "balanced" {
		errs = append(errs, FieldError{
			Field:   "generation.recovery.bracket_mode",
			Message: fmt.Sprintf("invalid bracket mode %q: must be 'greedy' or 'balanced'", r.BracketMode),
		})
	}
	if r.PreviewLength < 0 {
		errs = append(errs, FieldError{
			Field:   "generation.recovery.preview_length",
			Message: "preview length must be non-negative",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.path",
				Message: "path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 || cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite",
				Message: "connection limits must be non-negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "storage.retention.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError
	auth := cfg.Authentication

	if !auth.Enabled {
		return nil
	}

	if len(auth.Keys) == 0 {
		errs = append(errs, FieldError{
			Field:   "security.authentication.keys",
			Message: "at least one key is required when authentication is enabled",
		})
	}
	for i, k := range auth.Keys {
		if len(k.Key) < 16 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("security.authentication.keys[%d].key", i),
				Message: "key must be at least 16 characters",
			})
		}
	}
	for i, s := range auth.Sources {
		if (s.Type != "header" && s.Type != "query") || s.Name == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("security.authentication.sources[%d]", i),
				Message: "source needs type 'header' or 'query' and a name",
			})
		}
	}

	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
