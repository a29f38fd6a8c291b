package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QUILL_"

// knownProviders get environment overrides even when absent from the file,
// so a provider can be configured from the environment alone.
var knownProviders = []string{"openai", "anthropic", "gemini", "bedrock"}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// ${VAR} references in the file are expanded from the environment; QUILL_*
// overrides are not applied, use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of Default and applies defaults to whatever the
// document left empty. It does not validate.
func Parse(data []byte) (*Config, error) {
	expanded := envRef.ReplaceAllStringFunc(string(data), func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention QUILL_SECTION_FIELD (e.g., QUILL_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// A missing file is not an error: defaults plus environment are used.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case os.IsNotExist(err):
		cfg = Default()
	default:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envInt("SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	envInt64("SERVER_MAX_BODY_BYTES", &cfg.Server.MaxBodyBytes)
	envBool("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)

	// Providers: every configured name plus the well-known ones.
	names := make(map[string]struct{}, len(cfg.Providers)+len(knownProviders))
	for name := range cfg.Providers {
		names[name] = struct{}{}
	}
	for _, name := range knownProviders {
		names[name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	for _, name := range sorted {
		applyProviderEnvOverrides(cfg, name)
	}

	// Generation
	envString("GENERATION_DEFAULT_PROVIDER", &cfg.Generation.DefaultProvider)
	envInt("GENERATION_MAX_PROMPT_LENGTH", &cfg.Generation.MaxPromptLength)
	envInt("GENERATION_MAX_TOKENS", &cfg.Generation.MaxTokens)
	envFloat("GENERATION_TEMPERATURE", &cfg.Generation.Temperature)
	envString("GENERATION_RECOVERY_BRACKET_MODE", &cfg.Generation.Recovery.BracketMode)
	envInt("GENERATION_RECOVERY_PREVIEW_LENGTH", &cfg.Generation.Recovery.PreviewLength)

	// Storage
	envString("STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("STORAGE_SQLITE_DRIVER", &cfg.Storage.SQLite.Driver)
	envString("STORAGE_SQLITE_PATH", &cfg.Storage.SQLite.Path)
	envBool("STORAGE_SQLITE_WAL_MODE", &cfg.Storage.SQLite.WALMode)
	envInt("STORAGE_RETENTION_DAYS", &cfg.Storage.Retention.Days)
	envString("STORAGE_RETENTION_PRUNE_SCHEDULE", &cfg.Storage.Retention.PruneSchedule)
	envInt64("STORAGE_RETENTION_MAX_RECORDS", &cfg.Storage.Retention.MaxRecords)

	// Telemetry
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT_PII", &cfg.Telemetry.Logging.RedactPII)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)

	// Security
	envBool("SECURITY_AUTHENTICATION_ENABLED", &cfg.Security.Authentication.Enabled)
}

// applyProviderEnvOverrides applies environment variable overrides for a specific provider.
// Provider environment variables follow the format QUILL_PROVIDERS_<NAME>_<FIELD>.
// A provider absent from the file is only created when one of its variables is set.
func applyProviderEnvOverrides(cfg *Config, providerName string) {
	prefix := "PROVIDERS_" + strings.ToUpper(strings.ReplaceAll(providerName, "-", "_")) + "_"

	provider, exists := cfg.Providers[providerName]
	changed := false
	changed = envString(prefix+"TYPE", &provider.Type) || changed
	changed = envString(prefix+"BASE_URL", &provider.BaseURL) || changed
	changed = envString(prefix+"API_KEY", &provider.APIKey) || changed
	changed = envString(prefix+"MODEL", &provider.Model) || changed
	changed = envString(prefix+"REGION", &provider.Region) || changed
	changed = envString(prefix+"ACCESS_KEY_ID", &provider.AccessKeyID) || changed
	changed = envString(prefix+"SECRET_ACCESS_KEY", &provider.SecretAccessKey) || changed
	changed = envDuration(prefix+"TIMEOUT", &provider.Timeout) || changed
	changed = envInt(prefix+"MAX_RETRIES", &provider.MaxRetries) || changed

	if exists || changed {
		cfg.Providers[providerName] = provider
	}
}

func lookupEnv(key string) (string, bool) {
	val := os.Getenv(EnvPrefix + key)
	return val, val != ""
}

func envString(key string, dst *string) bool {
	if val, ok := lookupEnv(key); ok {
		*dst = val
		return true
	}
	return false
}

func envDuration(key string, dst *time.Duration) bool {
	if val, ok := lookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
			return true
		}
	}
	return false
}

func envInt(key string, dst *int) bool {
	if val, ok := lookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
			return true
		}
	}
	return false
}

func envInt64(key string, dst *int64) bool {
	if val, ok := lookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
			return true
		}
	}
	return false
}

func envFloat(key string, dst *float64) bool {
	if val, ok := lookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
			return true
		}
	}
	return false
}

func envBool(key string, dst *bool) bool {
	if val, ok := lookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
			return true
		}
	}
	return false
}
