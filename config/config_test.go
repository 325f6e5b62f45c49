package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestTelemetryConfig_Sanitize(t *testing.T) {
	cfg := TelemetryConfig{SampleRate: 1.5, WriteTimeout: 0}
	cfg.Sanitize()

	if cfg.SampleRate != 1 {
		t.Fatalf("expected sample rate clamped to 1, got %v", cfg.SampleRate)
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("expected write timeout default, got %v", cfg.WriteTimeout)
	}

	cfg = TelemetryConfig{SampleRate: -0.5, WriteTimeout: time.Second}
	cfg.Sanitize()

	if cfg.SampleRate != 0 {
		t.Fatalf("expected sample rate clamped to 0, got %v", cfg.SampleRate)
	}
	if cfg.WriteTimeout != time.Second {
		t.Fatalf("expected explicit write timeout to survive, got %v", cfg.WriteTimeout)
	}
}

func TestQueueConfig_Sanitize(t *testing.T) {
	cfg := QueueConfig{NamePrefix: "  ", DedupTTL: -time.Minute}
	cfg.Sanitize()

	if cfg.NamePrefix != "evaluations" {
		t.Fatalf("expected default queue prefix, got %q", cfg.NamePrefix)
	}
	if cfg.DedupTTL != 24*time.Hour {
		t.Fatalf("expected default dedup ttl, got %v", cfg.DedupTTL)
	}

	cfg = QueueConfig{NamePrefix: " jobs ", DedupTTL: time.Hour}
	cfg.Sanitize()

	if cfg.NamePrefix != "jobs" {
		t.Fatalf("expected trimmed prefix, got %q", cfg.NamePrefix)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " "}
	cfg.Sanitize()

	if cfg.IsEnabled() {
		t.Fatal("expected metrics disabled without an address")
	}

	cfg = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " statsd:8125 "}
	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatal("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:8125" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_URI", "redis://cache.internal:6379/2")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("QUEUE_NAME_PREFIX", "jobs")
	t.Setenv("TELEMETRY_SAMPLE_RATE", "0.25")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Postgres.Host != "pg.internal" {
		t.Fatalf("unexpected db host: %q", cfg.Postgres.Host)
	}
	if cfg.Postgres.Port != 5433 {
		t.Fatalf("unexpected db port: %d", cfg.Postgres.Port)
	}
	if cfg.Redis.URI != "redis://cache.internal:6379/2" {
		t.Fatalf("unexpected redis uri: %q", cfg.Redis.URI)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Queue.NamePrefix != "jobs" {
		t.Fatalf("unexpected queue prefix: %q", cfg.Queue.NamePrefix)
	}
	if cfg.Telemetry.SampleRate != 0.25 {
		t.Fatalf("unexpected sample rate: %v", cfg.Telemetry.SampleRate)
	}
}
