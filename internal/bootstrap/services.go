package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gradebench/gradebench/config"
	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/observability/statsd"
	"github.com/gradebench/gradebench/internal/queue"
	"github.com/gradebench/gradebench/internal/service"
)

// ServiceDeps contains the shared infrastructure services are built from.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// ServiceContainer holds the constructed application services. The queue
// client and telemetry sink own background resources; Close releases them.
type ServiceContainer struct {
	Evaluations *service.EvaluationService
	Share       *service.ShareService
	Telemetry   *service.TelemetryService
	Queue       *queue.RedisQueue
	Metrics     *statsd.Client
}

// NewServices constructs the full service graph.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger

	metrics, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  cfg.Observability.Metrics.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create statsd client: %w", err)
	}

	q, err := queue.New(queue.Options{
		Client:     deps.RedisClient,
		NamePrefix: cfg.Queue.NamePrefix,
		DedupTTL:   cfg.Queue.DedupTTL,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create queue client: %w", err)
	}

	evaluationRepo := data.NewEvaluationRepo(deps.DB, logger)
	projectRepo := data.NewProjectRepo(deps.DB)
	shareRepo := data.NewShareTokenRepo(deps.DB)
	telemetryRepo := data.NewTelemetryRepo(deps.DB)

	telemetry, err := service.NewTelemetryService(service.TelemetryServiceOptions{
		Store:      telemetryRepo,
		SampleRate: cfg.Telemetry.SampleRate,
		Timeout:    cfg.Telemetry.WriteTimeout,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create telemetry service: %w", err)
	}

	guard, err := service.NewAccessService(service.AccessServiceOptions{
		Projects: projectRepo,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create access service: %w", err)
	}

	evaluations, err := service.NewEvaluationService(service.EvaluationServiceOptions{
		Repo:      evaluationRepo,
		Guard:     guard,
		Queue:     q,
		Telemetry: telemetry,
		QueueName: cfg.Queue.NamePrefix,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create evaluation service: %w", err)
	}

	share, err := service.NewShareService(service.ShareServiceOptions{
		Tokens:      shareRepo,
		Evaluations: evaluationRepo,
		Projects:    projectRepo,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create share service: %w", err)
	}

	return &ServiceContainer{
		Evaluations: evaluations,
		Share:       share,
		Telemetry:   telemetry,
		Queue:       q,
		Metrics:     metrics,
	}, nil
}

// Close releases service-owned resources in dependency order.
func (c *ServiceContainer) Close(logger *slog.Logger) {
	if c.Telemetry != nil {
		c.Telemetry.Close()
	}
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil && logger != nil {
			logger.Error("close queue client failed", "error", err)
		}
	}
	if c.Metrics != nil {
		if err := c.Metrics.Close(); err != nil && logger != nil {
			logger.Error("close statsd client failed", "error", err)
		}
	}
}
