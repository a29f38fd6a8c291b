package config

import "time"

// Config is the root configuration structure for Quill.
// It contains all configuration sections for the gateway.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Providers maps provider names to their configuration.
	// Provider names are used by generation requests to select a backend.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Generation controls prompt construction and output recovery.
	Generation GenerationConfig `yaml:"generation"`

	// Storage configures where generation records are persisted.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains API key authentication configuration.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address the server listens on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 120s, generation calls are slow
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout is the per-request deadline applied by middleware.
	// Default: 90s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes in request headers.
	// Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps request bodies before they are read or hashed.
	// Default: 1MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers"`
	MaxAge           int      `yaml:"max_age"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// ProviderConfig contains settings for one text-generation backend.
type ProviderConfig struct {
	// Type selects the adapter: "openai", "anthropic", "gemini" or "bedrock".
	// When empty it is inferred from the provider name.
	Type string `yaml:"type"`

	// BaseURL is the API endpoint. Bedrock derives it from Region when empty.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against key-based providers.
	// Use ${ENV_VAR} or QUILL_PROVIDERS_<NAME>_API_KEY to keep it out of the file.
	APIKey string `yaml:"api_key"`

	// Model is the default model for this provider.
	Model string `yaml:"model"`

	// Region is the AWS region for bedrock providers.
	Region string `yaml:"region"`

	// AccessKeyID and SecretAccessKey are the AWS credentials for bedrock.
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`

	// Timeout is the maximum duration for a single upstream request.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries for transient failures.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`
}

// GenerationConfig controls the generation service.
type GenerationConfig struct {
	// DefaultProvider is used when a request names no provider.
	DefaultProvider string `yaml:"default_provider"`

	// MaxPromptLength caps the user prompt in bytes.
	// Default: 4000
	MaxPromptLength int `yaml:"max_prompt_length"`

	// MaxTokens is the completion budget sent upstream.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is the sampling temperature sent upstream.
	// Default: 0.2
	Temperature float64 `yaml:"temperature"`

	// SystemPrompt overrides the built-in instructions.
	SystemPrompt string `yaml:"system_prompt"`

	// Recovery configures how model output is interpreted.
	Recovery RecoveryConfig `yaml:"recovery"`
}

// RecoveryConfig configures output recovery.
type RecoveryConfig struct {
	// PrimaryField, BodyField and ConfidentField are the JSON keys requested
	// from the model. Defaults: "title", "specs", "confident".
	PrimaryField   string `yaml:"primary_field"`
	BodyField      string `yaml:"body_field"`
	ConfidentField string `yaml:"confident_field"`

	// BracketMode is "greedy" (default) or "balanced".
	BracketMode string `yaml:"bracket_mode"`

	// PreviewLength bounds the text echoed back when recovery fails.
	// Default: 200
	PreviewLength int `yaml:"preview_length"`
}

// StorageConfig configures generation persistence.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention controls pruning of old records.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite settings.
type SQLiteConfig struct {
	// Driver selects the database/sql driver: "sqlite" (pure Go, default)
	// or "sqlite3" (cgo).
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/quill.db"
	Path string `yaml:"path"`

	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	WALMode      bool          `yaml:"wal_mode"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains retention policy settings.
type RetentionConfig struct {
	// Days is how long records are kept. 0 keeps them forever.
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for the pruning job.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords caps the number of stored records. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json", "text" or "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource adds file:line to log records.
	AddSource bool `yaml:"add_source"`

	// RedactPII enables redaction of credentials and PII in log output.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns adds custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern is a custom log redaction rule.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "quill"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets are histogram buckets in seconds.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	Authentication AuthenticationConfig `yaml:"authentication"`
}

// AuthenticationConfig contains API key authentication settings.
type AuthenticationConfig struct {
	// Enabled controls whether API key authentication is enforced.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sources defines where API keys are read from.
	Sources []APIKeySource `yaml:"sources"`

	// Keys is the list of accepted keys.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeySource is a header or query parameter carrying an API key.
type APIKeySource struct {
	// Type is "header" or "query".
	Type string `yaml:"type"`

	// Name is the header or query parameter name.
	Name string `yaml:"name"`

	// Scheme is an optional prefix such as "Bearer".
	Scheme string `yaml:"scheme,omitempty"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	UserID  string `yaml:"user_id"`
	Enabled bool   `yaml:"enabled"`
}
