// Package config provides configuration management for proxystats.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PROXYSTATS_SECTION_FIELD.
// For example:
//
//   - PROXYSTATS_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - PROXYSTATS_METRICS_NAMESPACE overrides metrics.namespace
//   - PROXYSTATS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Hot Reload
//
// Watcher observes the configuration file for changes and reloads it with
// debouncing, so that recorder settings (parameter lists, extraction
// patterns, per-consumer tracking) can change without a restart. A reload
// that fails validation is logged and discarded.
package config
