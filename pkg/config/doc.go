// Package config provides configuration management for Quill.
//
// Configuration is read from a YAML file, completed with defaults, overridden
// from the environment and validated. The resulting *Config is passed
// explicitly to every component; there is no package-level instance.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// String values may reference the environment as ${VAR}; references are
// expanded before the YAML is decoded.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention QUILL_SECTION_FIELD:
//
//   - QUILL_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - QUILL_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//   - QUILL_PROVIDERS_BEDROCK_SECRET_ACCESS_KEY overrides providers.bedrock.secret_access_key
//   - QUILL_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Setting any QUILL_PROVIDERS_<NAME>_* variable for a well-known provider
// (openai, anthropic, gemini, bedrock) creates it when the file does not.
//
// # Hot Reload
//
// Watcher re-reads the file after it changes and hands the new value to a
// callback. Invalid files are logged and ignored.
package config
