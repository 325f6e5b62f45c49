package data_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/domain/model"
	"github.com/gradebench/gradebench/internal/testutil"
)

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestTelemetryInserts(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewTelemetryRepo(db)
		userID := "user-1"

		require.NoError(t, repo.InsertRequestTrace(ctx, &model.RequestTrace{
			RequestID:  "req-1",
			Method:     "POST",
			Path:       "/api/evaluations",
			StatusCode: 201,
			DurationMS: 37,
			UserID:     &userID,
			Metadata:   map[string]string{"kind": "grade"},
		}))
		assert.Equal(t, 1, countRows(t, db, "request_traces"))

		require.NoError(t, repo.InsertAuditEntry(ctx, &model.AuditEntry{
			UserID:       &userID,
			Action:       "POST /api/evaluations",
			ResourceType: "evaluations",
			StatusCode:   201,
		}))
		assert.Equal(t, 1, countRows(t, db, "audit_log"))

		duration := int64(1200)
		require.NoError(t, repo.InsertJobEvent(ctx, &model.JobEvent{
			QueueName:  "evaluations:grade",
			JobType:    "grade",
			JobID:      "job-1",
			State:      model.JobEventCompleted,
			Attempt:    1,
			DurationMS: &duration,
		}))
		assert.Equal(t, 1, countRows(t, db, "job_events"))
	})
}
