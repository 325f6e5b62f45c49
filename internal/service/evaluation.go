package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gradebench/gradebench/internal/core"
	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/domain/model"
	apperrors "github.com/gradebench/gradebench/internal/errors"
	"github.com/gradebench/gradebench/internal/normalize"
)

// enqueueFailureReason is the fixed failure reason recorded when the broker
// rejects a submission. The record fails in place; no retry is attempted.
const enqueueFailureReason = "failed to enqueue job"

const defaultQueueName = "evaluations"

// EvaluationServiceOptions groups dependencies for EvaluationService.
type EvaluationServiceOptions struct {
	Repo      core.EvaluationRepository // Required: evaluation persistence
	Guard     *AccessService            // Required: ownership enforcement
	Queue     core.QueueClient          // Required: job broker client
	Telemetry *TelemetryService         // Optional: job event sink
	QueueName string                    // Optional: queue name prefix for events
	Logger    *slog.Logger              // Optional: structured logger
}

// EvaluationService drives the evaluation lifecycle: submission creates a
// pending record and enqueues work for the external worker pool; worker
// callbacks move the record forward through the monotonic state machine
// pending→running→{completed,failed}. A broker outage at submit time takes
// the pending→failed shortcut and is absorbed into the returned record
// rather than surfaced as an error.
type EvaluationService struct {
	repo      core.EvaluationRepository
	guard     *AccessService
	queue     core.QueueClient
	telemetry *TelemetryService
	queueName string
	logger    *slog.Logger
}

// NewEvaluationService constructs a new EvaluationService.
func NewEvaluationService(opts EvaluationServiceOptions) (*EvaluationService, error) {
	if opts.Repo == nil {
		return nil, errors.New("EvaluationRepository is required")
	}
	if opts.Guard == nil {
		return nil, errors.New("AccessService is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("QueueClient is required")
	}

	queueName := strings.TrimSpace(opts.QueueName)
	if queueName == "" {
		queueName = defaultQueueName
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "evaluation_service")
	}

	return &EvaluationService{
		repo:      opts.Repo,
		guard:     opts.Guard,
		queue:     opts.Queue,
		telemetry: opts.Telemetry,
		queueName: queueName,
		logger:    logger,
	}, nil
}

// MustNewEvaluationService constructs a new EvaluationService and panics on error.
func MustNewEvaluationService(opts EvaluationServiceOptions) *EvaluationService {
	svc, err := NewEvaluationService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast during startup
		panic(fmt.Sprintf("failed to create EvaluationService: %v", err))
	}
	return svc
}

// Submit creates an evaluation for a version the caller owns and enqueues it.
// Ownership is checked before any row exists: an unauthorized or unknown
// version fails without a trace in the store. On enqueue failure the record
// is returned in failed state with a non-nil failure reason, not an error.
func (s *EvaluationService) Submit(ctx context.Context, userID, versionID string, kind model.EvaluationKind) (*model.Report, error) {
	if !kind.Valid() {
		return nil, apperrors.Validationf("invalid evaluation kind: %q", kind)
	}
	if strings.TrimSpace(versionID) == "" {
		return nil, apperrors.Validation("version id is required")
	}

	owner, err := s.guard.AuthorizeVersion(ctx, userID, versionID)
	if err != nil {
		return nil, err
	}

	ev, err := s.repo.Create(ctx, &model.CreateEvaluationRequest{
		VersionID: versionID,
		ProjectID: owner.ProjectID,
		Kind:      kind,
	})
	if err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}

	enqueueErr := s.queue.Enqueue(ctx, model.QueueMessage{
		JobID:     ev.ID,
		VersionID: ev.VersionID,
		Kind:      ev.Kind,
	})
	switch {
	case enqueueErr == nil:
		s.emitJobEvent(ctx, ev, model.JobEventQueued, nil, nil)
	case apperrors.IsQueueUnavailable(enqueueErr):
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "enqueue failed, failing evaluation",
				"evaluation_id", ev.ID, "error", enqueueErr)
		}
		if _, failErr := s.repo.MarkFailed(ctx, ev.ID, enqueueFailureReason); failErr != nil {
			return nil, fmt.Errorf("mark evaluation failed after enqueue error: %w", failErr)
		}
		ev, err = s.repo.GetByID(ctx, ev.ID)
		if err != nil {
			return nil, fmt.Errorf("reload evaluation: %w", err)
		}
		msg := enqueueErr.Error()
		s.emitJobEvent(ctx, ev, model.JobEventFailed, nil, &msg)
	default:
		return nil, fmt.Errorf("enqueue evaluation: %w", enqueueErr)
	}

	report := normalize.Report(ev)
	return &report, nil
}

// Get returns the normalized record for a job the caller owns.
func (s *EvaluationService) Get(ctx context.Context, userID, id string) (*model.Report, error) {
	ev, err := s.getEvaluation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AuthorizeProject(ctx, userID, ev.ProjectID); err != nil {
		return nil, err
	}

	report := normalize.Report(ev)
	return &report, nil
}

// Start records that a worker picked the job up. Idempotent: a job no longer
// in pending reports advanced=false without error.
func (s *EvaluationService) Start(ctx context.Context, id string) (bool, error) {
	advanced, err := s.markTransition(ctx, id, func() (bool, error) {
		return s.repo.MarkRunning(ctx, id)
	})
	if err != nil {
		return false, err
	}
	if advanced {
		if ev, getErr := s.repo.GetByID(ctx, id); getErr == nil {
			s.emitJobEvent(ctx, ev, model.JobEventRunning, nil, nil)
		}
	}
	return advanced, nil
}

// Complete ingests a worker result and moves the job to completed. A repeat
// report for an already-terminal job is a no-op, not an error.
func (s *EvaluationService) Complete(ctx context.Context, id string, result *model.RawResult) (bool, error) {
	if result == nil {
		result = &model.RawResult{}
	}
	advanced, err := s.markTransition(ctx, id, func() (bool, error) {
		return s.repo.MarkCompleted(ctx, id, result)
	})
	if err != nil {
		return false, err
	}
	if advanced {
		if ev, getErr := s.repo.GetByID(ctx, id); getErr == nil {
			s.emitJobEvent(ctx, ev, model.JobEventCompleted, jobDuration(ev), nil)
		}
	}
	return advanced, nil
}

// Fail moves the job to failed with the worker-reported reason.
func (s *EvaluationService) Fail(ctx context.Context, id, reason string) (bool, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "worker reported failure"
	}
	advanced, err := s.markTransition(ctx, id, func() (bool, error) {
		return s.repo.MarkFailed(ctx, id, reason)
	})
	if err != nil {
		return false, err
	}
	if advanced {
		if ev, getErr := s.repo.GetByID(ctx, id); getErr == nil {
			s.emitJobEvent(ctx, ev, model.JobEventFailed, jobDuration(ev), &reason)
		}
	}
	return advanced, nil
}

// Stats returns per-status counts plus the current broker backlog for a kind.
func (s *EvaluationService) Stats(ctx context.Context, kind model.EvaluationKind) (*model.EvaluationStats, int64, error) {
	stats, err := s.repo.Stats(ctx, kind)
	if err != nil {
		return nil, 0, fmt.Errorf("evaluation stats: %w", err)
	}
	depth, err := s.queue.Depth(ctx, kind)
	if err != nil {
		// Broker backlog is advisory; stats remain useful without it.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "queue depth unavailable", "error", err)
		}
		depth = -1
	}
	return stats, depth, nil
}

func (s *EvaluationService) getEvaluation(ctx context.Context, id string) (*model.Evaluation, error) {
	ev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrEvaluationNotFound) {
			return nil, apperrors.NotFound("evaluation not found")
		}
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return ev, nil
}

func (s *EvaluationService) markTransition(ctx context.Context, id string, mark func() (bool, error)) (bool, error) {
	advanced, err := mark()
	if err != nil {
		if errors.Is(err, data.ErrEvaluationNotFound) {
			return false, apperrors.NotFound("evaluation not found")
		}
		return false, err
	}
	if !advanced && s.logger != nil {
		s.logger.DebugContext(ctx, "transition was a no-op", "evaluation_id", id)
	}
	return advanced, nil
}

func (s *EvaluationService) emitJobEvent(ctx context.Context, ev *model.Evaluation, state model.JobEventState, durationMS *int64, errMsg *string) {
	if s.telemetry == nil {
		return
	}
	s.telemetry.RecordJobEvent(ctx, model.JobEvent{
		QueueName:    s.queueName + ":" + string(ev.Kind),
		JobType:      string(ev.Kind),
		JobID:        ev.ID,
		State:        state,
		Attempt:      1,
		DurationMS:   durationMS,
		ErrorMessage: errMsg,
	})
}

// jobDuration measures queued-to-terminal time when both endpoints are set.
func jobDuration(ev *model.Evaluation) *int64 {
	if ev.CompletedAt == nil {
		return nil
	}
	ms := ev.CompletedAt.Sub(ev.QueuedAt) / time.Millisecond
	v := int64(ms)
	if v < 0 {
		return nil
	}
	return &v
}
