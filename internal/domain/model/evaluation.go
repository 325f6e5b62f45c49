// Package model defines the core data types used throughout the gradebench evaluation system.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EvaluationKind represents the type of evaluation performed on a design version.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type EvaluationKind string

// EvaluationStatus represents the current status of an evaluation job.
type EvaluationStatus string

const (
	// KindGrade represents an automated grading evaluation.
	KindGrade EvaluationKind = "grade"
	// KindSimulate represents a load-simulation evaluation.
	KindSimulate EvaluationKind = "simulate"

	// StatusPending indicates an evaluation is waiting for a worker.
	StatusPending EvaluationStatus = "pending"
	// StatusRunning indicates a worker is processing the evaluation.
	StatusRunning EvaluationStatus = "running"
	// StatusCompleted indicates the evaluation finished successfully.
	StatusCompleted EvaluationStatus = "completed"
	// StatusFailed indicates the evaluation failed.
	StatusFailed EvaluationStatus = "failed"
)

// UnmarshalText implements encoding.TextUnmarshaler for EvaluationKind to allow env parsing.
func (k *EvaluationKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	ek := EvaluationKind(v)
	if ek.Valid() {
		*k = ek
		return nil
	}
	return fmt.Errorf("invalid EvaluationKind: %q", v)
}

// Valid returns true if the EvaluationKind is valid.
func (k EvaluationKind) Valid() bool {
	return k == KindGrade || k == KindSimulate
}

// Valid returns true if the EvaluationStatus is valid.
func (s EvaluationStatus) Valid() bool {
	return s == StatusPending || s == StatusRunning || s == StatusCompleted ||
		s == StatusFailed
}

// Terminal returns true if the status admits no further transitions.
func (s EvaluationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition. Status is monotonic: pending→running→{completed,failed}, plus the
// pending→failed shortcut taken when the enqueue itself fails. Repeating the
// current terminal state is allowed so worker retries stay idempotent.
func (s EvaluationStatus) CanTransitionTo(next EvaluationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusFailed
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted, StatusFailed:
		return next == s
	default:
		return false
	}
}

// Evaluation represents a single submitted evaluation job: one row per
// submission, owned transitively through its project.
type Evaluation struct {
	ID        string           `json:"id"         db:"id"`
	VersionID string           `json:"version_id" db:"version_id"`
	ProjectID string           `json:"project_id" db:"project_id"`
	Kind      EvaluationKind   `json:"kind"       db:"kind"`
	Status    EvaluationStatus `json:"status"     db:"status"`

	QueuedAt      time.Time  `json:"queued_at"                db:"queued_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"     db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"   db:"completed_at"`
	FailureReason *string    `json:"failure_reason,omitempty" db:"failure_reason"`

	// Worker-attached result fields. These are persisted as JSONB and are
	// only trusted after passing through the normalizer.
	OverallScore   *float64        `json:"overall_score,omitempty" db:"overall_score"`
	Summary        *string         `json:"summary,omitempty"       db:"summary"`
	CategoryScores json.RawMessage `json:"-"                       db:"category_scores"`
	ActionItems    json.RawMessage `json:"-"                       db:"action_items"`
	Strengths      json.RawMessage `json:"-"                       db:"strengths"`
	Risks          json.RawMessage `json:"-"                       db:"risks"`
	Notes          json.RawMessage `json:"-"                       db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateEvaluationRequest represents a request to create a new evaluation row.
type CreateEvaluationRequest struct {
	VersionID string         `json:"version_id"`
	ProjectID string         `json:"project_id"`
	Kind      EvaluationKind `json:"kind"`
}

// Validate validates the CreateEvaluationRequest fields.
func (r *CreateEvaluationRequest) Validate() error {
	if strings.TrimSpace(r.VersionID) == "" {
		return errors.New("version id is required")
	}
	if strings.TrimSpace(r.ProjectID) == "" {
		return errors.New("project id is required")
	}
	if !r.Kind.Valid() {
		return errors.New("invalid evaluation kind")
	}
	return nil
}

// RawResult carries the semi-structured payload a worker reports on completion.
// Fields are stored as-is; schema validation happens on read, not on ingest,
// so a worker bug never blocks the terminal transition.
type RawResult struct {
	OverallScore   *float64        `json:"overall_score,omitempty"`
	Summary        *string         `json:"summary,omitempty"`
	CategoryScores json.RawMessage `json:"category_scores,omitempty"`
	ActionItems    json.RawMessage `json:"action_items,omitempty"`
	Strengths      json.RawMessage `json:"strengths,omitempty"`
	Risks          json.RawMessage `json:"risks,omitempty"`
	Notes          json.RawMessage `json:"notes,omitempty"`
}

// QueueMessage is the payload enqueued for the external worker pool.
// The broker key is the job's own id so retried submissions deduplicate.
type QueueMessage struct {
	JobID     string         `json:"jobId"`
	VersionID string         `json:"versionId"`
	Kind      EvaluationKind `json:"kind"`
}

// EvaluationStats represents counts of evaluations in each state.
type EvaluationStats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}
