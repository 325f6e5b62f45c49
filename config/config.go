// Package config defines environment-driven application configuration.
package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Postgres and Redis configuration
//   - http.go: HTTP server configuration
//   - queue.go: evaluation queue configuration
//   - telemetry.go: telemetry sink configuration
//   - observability.go: metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (verbose logging, etc.).
	IsDev bool `env:"DEV" envDefault:"false"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP          HTTPConfig
	Queue         QueueConfig
	Telemetry     TelemetryConfig
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// Call this after env parsing and before using the config.
func (c *AppConfig) Sanitize() {
	c.Queue.Sanitize()
	c.Telemetry.Sanitize()
	c.Observability.Sanitize()
}
