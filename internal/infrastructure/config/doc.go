// Package config provides 12-factor configuration management for the TeamHub
// layout service.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown timeout)
//   - Storage: persistence backend (memory, file, sqlite) and its breaker
//   - Layout: storage key prefix, default tab seed file, in-memory limit
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: allowed browser origins
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - STORAGE_BACKEND, STORAGE_PATH, STORAGE_BREAKER_FAILURES, STORAGE_BREAKER_TIMEOUT
//   - LAYOUT_STORAGE_KEY, LAYOUT_DEFAULTS_FILE, LAYOUT_MAX_LOADED
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS (comma separated)
package config
