package config

import "time"

// TelemetryConfig contains telemetry sink configuration.
type TelemetryConfig struct {
	// SampleRate controls request trace sampling in [0,1]. Rate >= 1 always
	// records, rate <= 0 never records. Audit entries ignore sampling.
	SampleRate float64 `env:"TELEMETRY_SAMPLE_RATE" envDefault:"1.0"`

	// WriteTimeout bounds each background telemetry write.
	WriteTimeout time.Duration `env:"TELEMETRY_WRITE_TIMEOUT" envDefault:"3s"`
}

// Sanitize clamps telemetry configuration into valid ranges.
func (c *TelemetryConfig) Sanitize() {
	if c.SampleRate < 0 {
		c.SampleRate = 0
	}
	if c.SampleRate > 1 {
		c.SampleRate = 1
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
}
