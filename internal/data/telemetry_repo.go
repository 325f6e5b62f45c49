package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gradebench/gradebench/internal/domain/model"
)

// TelemetryRepo stores request traces, audit entries, and job events.
// Callers (the telemetry sink) treat every error here as containable;
// this layer just reports them honestly.
type TelemetryRepo struct {
	DB *sql.DB
}

// NewTelemetryRepo creates a new TelemetryRepo with the given database connection.
func NewTelemetryRepo(db *sql.DB) *TelemetryRepo {
	return &TelemetryRepo{DB: db}
}

// InsertRequestTrace records one inbound HTTP request.
func (r *TelemetryRepo) InsertRequestTrace(ctx context.Context, trace *model.RequestTrace) error {
	if trace == nil {
		return errors.New("request trace is required")
	}

	meta, err := metadataArg(trace.Metadata)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, `
	  INSERT INTO request_traces
	    (request_id, method, path, status_code, duration_ms, user_id, ip_address, user_agent, metadata)
	  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		trace.RequestID, trace.Method, trace.Path, trace.StatusCode, trace.DurationMS,
		trace.UserID, trace.IPAddress, trace.UserAgent, meta)
	if err != nil {
		return fmt.Errorf("insert request trace: %w", err)
	}
	return nil
}

// InsertAuditEntry records one mutating inbound call.
func (r *TelemetryRepo) InsertAuditEntry(ctx context.Context, entry *model.AuditEntry) error {
	if entry == nil {
		return errors.New("audit entry is required")
	}

	meta, err := metadataArg(entry.Metadata)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, `
	  INSERT INTO audit_log
	    (user_id, action, resource_type, resource_id, status_code, ip_address, user_agent, metadata)
	  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.StatusCode, entry.IPAddress, entry.UserAgent, meta)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// InsertJobEvent records one evaluation job state transition.
func (r *TelemetryRepo) InsertJobEvent(ctx context.Context, event *model.JobEvent) error {
	if event == nil {
		return errors.New("job event is required")
	}

	_, err := r.DB.ExecContext(ctx, `
	  INSERT INTO job_events
	    (queue_name, job_type, job_id, state, attempt, duration_ms, error_message)
	  VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.QueueName, event.JobType, event.JobID, event.State,
		event.Attempt, event.DurationMS, event.ErrorMessage)
	if err != nil {
		return fmt.Errorf("insert job event: %w", err)
	}
	return nil
}

// metadataArg marshals a metadata map to a jsonb argument, mapping empty to NULL.
func metadataArg(meta map[string]string) (any, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}
