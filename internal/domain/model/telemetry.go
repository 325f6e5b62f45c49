package model

import "time"

// JobEventState mirrors the lifecycle states reported to the telemetry sink.
type JobEventState string

const (
	// JobEventQueued is emitted when a job is enqueued.
	JobEventQueued JobEventState = "queued"
	// JobEventRunning is emitted when a worker picks a job up.
	JobEventRunning JobEventState = "running"
	// JobEventCompleted is emitted on successful completion.
	JobEventCompleted JobEventState = "completed"
	// JobEventFailed is emitted on failure, including enqueue failures.
	JobEventFailed JobEventState = "failed"
)

// RequestTrace records one inbound HTTP request. Traces may be sampled.
type RequestTrace struct {
	RequestID  string            `json:"request_id"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	StatusCode int               `json:"status_code"`
	DurationMS int64             `json:"duration_ms"`
	UserID     *string           `json:"user_id,omitempty"`
	IPAddress  *string           `json:"ip_address,omitempty"`
	UserAgent  *string           `json:"user_agent,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// AuditEntry records one mutating inbound call. Audit entries are never sampled.
type AuditEntry struct {
	UserID       *string           `json:"user_id,omitempty"`
	Action       string            `json:"action"`
	ResourceType string            `json:"resource_type"`
	ResourceID   *string           `json:"resource_id,omitempty"`
	StatusCode   int               `json:"status_code"`
	IPAddress    *string           `json:"ip_address,omitempty"`
	UserAgent    *string           `json:"user_agent,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

// JobEvent records one evaluation job state transition.
type JobEvent struct {
	QueueName    string        `json:"queue_name"`
	JobType      string        `json:"job_type"`
	JobID        string        `json:"job_id"`
	State        JobEventState `json:"state"`
	Attempt      int           `json:"attempt"`
	DurationMS   *int64        `json:"duration_ms,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
