// Package config handles configuration loading and management for stopwatch.
//
// It provides functionality for:
//   - Loading configuration from .stopwatch.yaml (or a JSON equivalent)
//   - Default configuration values
//   - .env files and WFM_* environment overrides
package config
