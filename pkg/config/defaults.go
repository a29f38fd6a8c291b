package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 90 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = int64(1048576)

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Provider defaults
	DefaultProviderTimeout    = 60 * time.Second
	DefaultProviderMaxRetries = 3
	DefaultBedrockRegion      = "us-east-1"

	// Generation defaults
	DefaultMaxPromptLength      = 4000
	DefaultMaxTokens            = 1024
	DefaultTemperature          = 0.2
	DefaultRecoveryPrimaryField = "title"
	DefaultRecoveryBodyField    = "specs"
	DefaultRecoveryConfident    = "confident"
	DefaultRecoveryBracketMode  = "greedy"
	DefaultRecoveryPreview      = 200

	// Storage defaults
	DefaultStorageBackend      = "sqlite"
	DefaultSQLiteDriver        = "sqlite"
	DefaultSQLitePath          = "data/quill.db"
	DefaultSQLiteMaxOpenConns  = 10
	DefaultSQLiteMaxIdleConns  = 5
	DefaultSQLiteWALMode       = true
	DefaultSQLiteBusyTimeout   = 5 * time.Second
	DefaultRetentionDays       = 30
	DefaultRetentionSchedule   = "0 3 * * *"
	DefaultRetentionMaxRecords = int64(0)

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultLogRedactPII     = true
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "quill"
)

var (
	// DefaultCORSAllowedOrigins allows all origins.
	DefaultCORSAllowedOrigins = []string{"*"}

	// DefaultCORSAllowedMethods covers the generation API.
	DefaultCORSAllowedMethods = []string{"GET", "POST", "OPTIONS"}

	// DefaultCORSAllowedHeaders are the request headers browsers may send.
	DefaultCORSAllowedHeaders = []string{"Content-Type", "Authorization", "X-API-Key", "X-Request-ID"}

	// DefaultCORSExposedHeaders are visible to browser clients.
	DefaultCORSExposedHeaders = []string{"X-Request-ID"}

	// DefaultRequestDurationBuckets are histogram buckets in seconds.
	DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

	// DefaultAuthSources reads X-API-Key, then a bearer token.
	DefaultAuthSources = []APIKeySource{
		{Type: "header", Name: "X-API-Key"},
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
	}
)

// Default returns a configuration with every default applied, including the
// booleans that default to true. Load decodes YAML on top of it so that an
// explicit false in the file survives.
func Default() *Config {
	cfg := &Config{Providers: make(map[string]ProviderConfig)}
	cfg.Server.CORS.Enabled = DefaultCORSEnabled
	cfg.Storage.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Telemetry.Logging.RedactPII = DefaultLogRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Storage.Retention.Days = DefaultRetentionDays
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. Booleans are left
// alone; see Default.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyProviderDefaults(cfg.Providers)
	applyGenerationDefaults(&cfg.Generation)
	applyStorageDefaults(&cfg.Storage)
	applyTelemetryDefaults(&cfg.Telemetry)
	applySecurityDefaults(&cfg.Security)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxHeaderBytes == 0 {
		cfg.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = DefaultCORSAllowedOrigins
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = DefaultCORSAllowedMethods
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = DefaultCORSAllowedHeaders
	}
	if len(cfg.CORS.ExposedHeaders) == 0 {
		cfg.CORS.ExposedHeaders = DefaultCORSExposedHeaders
	}
	if cfg.CORS.MaxAge == 0 {
		cfg.CORS.MaxAge = DefaultCORSMaxAge
	}
}

func applyProviderDefaults(providers map[string]ProviderConfig) {
	for name, p := range providers {
		if p.Type == "" {
			p.Type = InferProviderType(name)
		}
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.MaxRetries == 0 {
			p.MaxRetries = DefaultProviderMaxRetries
		}
		if p.Type == "bedrock" && p.Region == "" {
			p.Region = DefaultBedrockRegion
		}
		providers[name] = p
	}
}

// InferProviderType maps well-known provider names to adapter types.
func InferProviderType(name string) string {
	switch name {
	case "openai", "anthropic", "gemini", "bedrock":
		return name
	case "google":
		return "gemini"
	case "aws":
		return "bedrock"
	default:
		return "openai"
	}
}

func applyGenerationDefaults(cfg *GenerationConfig) {
	if cfg.MaxPromptLength == 0 {
		cfg.MaxPromptLength = DefaultMaxPromptLength
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Recovery.PrimaryField == "" {
		cfg.Recovery.PrimaryField = DefaultRecoveryPrimaryField
	}
	if cfg.Recovery.BodyField == "" {
		cfg.Recovery.BodyField = DefaultRecoveryBodyField
	}
	if cfg.Recovery.ConfidentField == "" {
		cfg.Recovery.ConfidentField = DefaultRecoveryConfident
	}
	if cfg.Recovery.BracketMode == "" {
		cfg.Recovery.BracketMode = DefaultRecoveryBracketMode
	}
	if cfg.Recovery.PreviewLength == 0 {
		cfg.Recovery.PreviewLength = DefaultRecoveryPreview
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultStorageBackend
	}

	if cfg.SQLite.Driver == "" {
		cfg.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}
	if cfg.SQLite.MaxOpenConns == 0 {
		cfg.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.SQLite.MaxIdleConns == 0 {
		cfg.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = DefaultRetentionSchedule
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.RequestDurationBuckets) == 0 {
		cfg.Metrics.RequestDurationBuckets = DefaultRequestDurationBuckets
	}
}

func applySecurityDefaults(cfg *SecurityConfig) {
	if len(cfg.Authentication.Sources) == 0 {
		cfg.Authentication.Sources = DefaultAuthSources
	}
}
