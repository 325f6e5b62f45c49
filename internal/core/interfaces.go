package core

import (
	"context"

	"github.com/gradebench/gradebench/internal/domain/model"
)

// This file contains repository and client interface definitions (ports in
// hexagonal architecture). These interfaces define the contracts between the
// service layer and the data/queue layers. Service implementations should
// depend on these interfaces, not concrete implementations.

// EvaluationRepository defines the interface for evaluation persistence.
// Status transitions are enforced in SQL: a terminal row never moves again,
// and repeating the current terminal state reports advanced=false without error.
type EvaluationRepository interface {
	Create(ctx context.Context, req *model.CreateEvaluationRequest) (*model.Evaluation, error)
	GetByID(ctx context.Context, id string) (*model.Evaluation, error)
	// MarkRunning moves pending→running. Returns false if the row was not
	// in pending.
	MarkRunning(ctx context.Context, id string) (bool, error)
	// MarkCompleted moves pending/running→completed and attaches the raw
	// worker result. Returns false if the row was already terminal.
	MarkCompleted(ctx context.Context, id string, result *model.RawResult) (bool, error)
	// MarkFailed moves pending/running→failed with the given reason.
	// Returns false if the row was already terminal.
	MarkFailed(ctx context.Context, id, reason string) (bool, error)
	Stats(ctx context.Context, kind model.EvaluationKind) (*model.EvaluationStats, error)
}

// ProjectRepository defines the interface for project/version data and
// transitive ownership resolution.
type ProjectRepository interface {
	CreateProject(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error)
	CreateVersion(ctx context.Context, req *model.CreateVersionRequest) (*model.DesignVersion, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	GetVersion(ctx context.Context, id string) (*model.DesignVersion, error)
	// ResolveVersionOwner resolves version→project→owner in one query.
	ResolveVersionOwner(ctx context.Context, versionID string) (*model.VersionOwnership, error)
	// ResolveProjectOwner returns the owning user id for a project.
	ResolveProjectOwner(ctx context.Context, projectID string) (string, error)
}

// ShareTokenRepository defines the interface for share token resolution.
// Format validation happens in the service layer before any lookup here.
type ShareTokenRepository interface {
	// GetByToken returns the token row, or model-level not-found when the
	// token is unknown or revoked.
	GetByToken(ctx context.Context, token string) (*model.ShareToken, error)
	// Create exists for tests and seeding; production tokens are minted by
	// an external collaborator.
	Create(ctx context.Context, st *model.ShareToken) error
}

// TelemetryStore defines the durable best-effort store behind the telemetry
// sink. Implementations must be safe to call concurrently; errors are
// returned to the sink, which contains them.
type TelemetryStore interface {
	InsertRequestTrace(ctx context.Context, trace *model.RequestTrace) error
	InsertAuditEntry(ctx context.Context, entry *model.AuditEntry) error
	InsertJobEvent(ctx context.Context, event *model.JobEvent) error
}

// QueueClient defines the client-facing contract of the evaluation job queue.
// Enqueue is keyed by the job's own id so the broker deduplicates retried
// submissions; broker errors surface as a QueueUnavailable AppError.
type QueueClient interface {
	Enqueue(ctx context.Context, msg model.QueueMessage) error
	// Depth reports the number of waiting messages for a kind, for the
	// health/stats path.
	Depth(ctx context.Context, kind model.EvaluationKind) (int64, error)
	Close() error
}
