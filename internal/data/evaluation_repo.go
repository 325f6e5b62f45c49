package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/gradebench/gradebench/internal/domain/model"
)

// EvaluationRepo provides database operations for evaluation lifecycle records.
type EvaluationRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewEvaluationRepo creates a new EvaluationRepo with the given database
// connection. The logger is optional.
func NewEvaluationRepo(db *sql.DB, logger *slog.Logger) *EvaluationRepo {
	return &EvaluationRepo{DB: db, logger: logger}
}

const evaluationColumns = `
  id,
  version_id,
  project_id,
  kind,
  status,
  queued_at,
  started_at,
  completed_at,
  failure_reason,
  overall_score,
  summary,
  category_scores,
  action_items,
  strengths,
  risks,
  notes,
  created_at,
  updated_at
`

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (*model.Evaluation, error) {
	var ev model.Evaluation
	err := row.Scan(
		&ev.ID,
		&ev.VersionID,
		&ev.ProjectID,
		&ev.Kind,
		&ev.Status,
		&ev.QueuedAt,
		&ev.StartedAt,
		&ev.CompletedAt,
		&ev.FailureReason,
		&ev.OverallScore,
		&ev.Summary,
		&ev.CategoryScores,
		&ev.ActionItems,
		&ev.Strengths,
		&ev.Risks,
		&ev.Notes,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Create inserts a new evaluation row in pending status with queued_at=now.
func (r *EvaluationRepo) Create(
	ctx context.Context,
	req *model.CreateEvaluationRequest,
) (*model.Evaluation, error) {
	if req == nil {
		return nil, errors.New("create evaluation request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	row := r.DB.QueryRowContext(ctx, `
	  INSERT INTO evaluations (id, version_id, project_id, kind, status, queued_at)
	  VALUES ($1, $2, $3, $4, 'pending', now())
	  RETURNING `+evaluationColumns,
		id, req.VersionID, req.ProjectID, req.Kind)

	ev, err := scanEvaluation(row)
	if err != nil {
		return nil, fmt.Errorf("insert evaluation: %w", err)
	}

	if r.logger != nil {
		r.logger.DebugContext(ctx, "evaluation created", "id", ev.ID, "kind", ev.Kind)
	}
	return ev, nil
}

// GetByID returns an evaluation by its id.
func (r *EvaluationRepo) GetByID(ctx context.Context, id string) (*model.Evaluation, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return nil, ErrEvaluationNotFound
	}

	row := r.DB.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id)

	ev, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEvaluationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return ev, nil
}

// MarkRunning moves a pending evaluation to running. The status predicate in
// the WHERE clause is what enforces the forward-only state machine: a row
// that already left pending is untouched and advanced=false is returned.
func (r *EvaluationRepo) MarkRunning(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
	  UPDATE evaluations
	  SET status = 'running',
	      started_at = COALESCE(started_at, now()),
	      updated_at = now()
	  WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("mark evaluation running: %w", err)
	}
	return r.resolveTransitionOutcome(ctx, id, res)
}

// MarkCompleted moves a pending/running evaluation to completed and attaches
// the raw worker result. A repeated completion report is a no-op.
func (r *EvaluationRepo) MarkCompleted(
	ctx context.Context,
	id string,
	result *model.RawResult,
) (bool, error) {
	if result == nil {
		result = &model.RawResult{}
	}

	res, err := r.DB.ExecContext(ctx, `
	  UPDATE evaluations
	  SET status = 'completed',
	      completed_at = now(),
	      updated_at = now(),
	      overall_score = $2,
	      summary = $3,
	      category_scores = COALESCE($4::jsonb, '[]'::jsonb),
	      action_items = COALESCE($5::jsonb, '[]'::jsonb),
	      strengths = COALESCE($6::jsonb, '[]'::jsonb),
	      risks = COALESCE($7::jsonb, '[]'::jsonb),
	      notes = COALESCE($8::jsonb, '[]'::jsonb)
	  WHERE id = $1 AND status IN ('pending', 'running')`,
		id,
		result.OverallScore,
		result.Summary,
		jsonbArg(result.CategoryScores),
		jsonbArg(result.ActionItems),
		jsonbArg(result.Strengths),
		jsonbArg(result.Risks),
		jsonbArg(result.Notes),
	)
	if err != nil {
		return false, fmt.Errorf("mark evaluation completed: %w", err)
	}
	return r.resolveTransitionOutcome(ctx, id, res)
}

// MarkFailed moves a pending/running evaluation to failed with the given
// reason. A repeated failure report is a no-op.
func (r *EvaluationRepo) MarkFailed(ctx context.Context, id, reason string) (bool, error) {
	if strings.TrimSpace(reason) == "" {
		return false, errors.New("failure reason is required")
	}

	res, err := r.DB.ExecContext(ctx, `
	  UPDATE evaluations
	  SET status = 'failed',
	      failure_reason = $2,
	      completed_at = now(),
	      updated_at = now()
	  WHERE id = $1 AND status IN ('pending', 'running')`, id, reason)
	if err != nil {
		return false, fmt.Errorf("mark evaluation failed: %w", err)
	}
	return r.resolveTransitionOutcome(ctx, id, res)
}

// resolveTransitionOutcome distinguishes "row advanced", "row exists but the
// transition was skipped" (idempotent no-op), and "row absent".
func (r *EvaluationRepo) resolveTransitionOutcome(
	ctx context.Context,
	id string,
	res sql.Result,
) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	var exists bool
	err = r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM evaluations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check evaluation exists: %w", err)
	}
	if !exists {
		return false, ErrEvaluationNotFound
	}
	return false, nil
}

// Stats returns counts of evaluations per status for the given kind.
func (r *EvaluationRepo) Stats(
	ctx context.Context,
	kind model.EvaluationKind,
) (*model.EvaluationStats, error) {
	rows, err := r.DB.QueryContext(ctx, `
	  SELECT status, COUNT(*) FROM evaluations WHERE kind = $1 GROUP BY status`, kind)
	if err != nil {
		return nil, fmt.Errorf("evaluation stats: %w", err)
	}
	defer rows.Close()

	stats := &model.EvaluationStats{}
	for rows.Next() {
		var status model.EvaluationStatus
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("scan stats row: %w", scanErr)
		}
		switch status {
		case model.StatusPending:
			stats.Pending = count
		case model.StatusRunning:
			stats.Running = count
		case model.StatusCompleted:
			stats.Completed = count
		case model.StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	return stats, nil
}

// jsonbArg converts a raw JSON field to a driver argument, mapping empty to
// NULL so the COALESCE defaults apply.
func jsonbArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
