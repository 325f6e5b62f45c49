package config

import (
	"strings"
	"time"
)

// QueueConfig contains evaluation job queue configuration.
type QueueConfig struct {
	// NamePrefix namespaces the broker lists, e.g. "evaluations:grade".
	NamePrefix string `env:"QUEUE_NAME_PREFIX" envDefault:"evaluations"`

	// DedupTTL bounds how long an enqueue marker pins a job id at the broker.
	DedupTTL time.Duration `env:"QUEUE_DEDUP_TTL" envDefault:"24h"`
}

// Sanitize applies guardrails to queue configuration values.
func (c *QueueConfig) Sanitize() {
	c.NamePrefix = strings.TrimSpace(c.NamePrefix)
	if c.NamePrefix == "" {
		c.NamePrefix = "evaluations"
	}
	if c.DedupTTL <= 0 {
		c.DedupTTL = 24 * time.Hour
	}
}
