package model

import (
	"strings"
	"time"
)

// Priority is the closed 3-level priority enum attached to action items.
type Priority string

const (
	// PriorityP0 marks an action item as blocking.
	PriorityP0 Priority = "P0"
	// PriorityP1 marks an action item as important.
	PriorityP1 Priority = "P1"
	// PriorityP2 marks an action item as nice-to-have. Unknown priorities
	// clamp to P2 on read.
	PriorityP2 Priority = "P2"
)

// Valid returns true if the Priority is one of the closed enum values.
func (p Priority) Valid() bool {
	return p == PriorityP0 || p == PriorityP1 || p == PriorityP2
}

// ClampPriority coerces an arbitrary stored priority string into the closed
// enum, defaulting unknown values to P2.
func ClampPriority(raw string) Priority {
	p := Priority(strings.ToUpper(strings.TrimSpace(raw)))
	if p.Valid() {
		return p
	}
	return PriorityP2
}

// CategoryScore is a single scored category in a grade report.
type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// ActionItem is a single recommended follow-up in a report.
type ActionItem struct {
	Title    string   `json:"title"`
	Detail   string   `json:"detail,omitempty"`
	Priority Priority `json:"priority"`
}

// Report is the strongly-typed, normalized view of an evaluation record.
// Every collection field is non-nil: malformed stored JSON degrades to an
// empty slice rather than failing the read.
type Report struct {
	ID        string           `json:"id"`
	VersionID string           `json:"version_id"`
	ProjectID string           `json:"project_id"`
	Kind      EvaluationKind   `json:"kind"`
	Status    EvaluationStatus `json:"status"`

	QueuedAt      time.Time  `json:"queued_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	FailureReason *string    `json:"failure_reason,omitempty"`

	OverallScore   *float64        `json:"overall_score,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	CategoryScores []CategoryScore `json:"category_scores"`
	ActionItems    []ActionItem    `json:"action_items"`
	Strengths      []string        `json:"strengths"`
	Risks          []string        `json:"risks"`
	Notes          []string        `json:"notes"`
}

// SharedReport is the read-only snapshot returned for a valid share token.
type SharedReport struct {
	ProjectName  string `json:"project_name"`
	VersionLabel string `json:"version_label"`
	Report       Report `json:"report"`
}
