package data_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/domain/model"
	"github.com/gradebench/gradebench/internal/testutil"
)

func TestEvaluationLifecycleInSQL(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewEvaluationRepo(db, nil)
		_, version := testutil.SeedOwnershipChain(t, db, "user-1")

		ev, err := repo.Create(ctx, &model.CreateEvaluationRequest{
			VersionID: version.ID,
			ProjectID: version.ProjectID,
			Kind:      model.KindGrade,
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, ev.Status)
		assert.False(t, ev.QueuedAt.IsZero())
		assert.Nil(t, ev.StartedAt)
		assert.Nil(t, ev.CompletedAt)

		advanced, err := repo.MarkRunning(ctx, ev.ID)
		require.NoError(t, err)
		assert.True(t, advanced)

		// A second start report is a no-op, not an error.
		advanced, err = repo.MarkRunning(ctx, ev.ID)
		require.NoError(t, err)
		assert.False(t, advanced)

		score := 85.5
		summary := "solid design with a few gaps"
		advanced, err = repo.MarkCompleted(ctx, ev.ID, &model.RawResult{
			OverallScore:   &score,
			Summary:        &summary,
			CategoryScores: json.RawMessage(`[{"category":"scalability","score":80}]`),
		})
		require.NoError(t, err)
		assert.True(t, advanced)

		got, err := repo.GetByID(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, got.Status)
		require.NotNil(t, got.OverallScore)
		assert.InDelta(t, 85.5, *got.OverallScore, 0.001)
		require.NotNil(t, got.CompletedAt)
		assert.NotNil(t, got.StartedAt)

		// Terminal rows never move again, in either direction.
		advanced, err = repo.MarkFailed(ctx, ev.ID, "late failure report")
		require.NoError(t, err)
		assert.False(t, advanced)

		advanced, err = repo.MarkCompleted(ctx, ev.ID, nil)
		require.NoError(t, err)
		assert.False(t, advanced)

		got, err = repo.GetByID(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, got.Status)
		assert.Nil(t, got.FailureReason)
	})
}

func TestMarkFailedFromPending(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewEvaluationRepo(db, nil)
		_, version := testutil.SeedOwnershipChain(t, db, "user-1")
		ev := testutil.SeedEvaluation(t, db, version, model.KindSimulate)

		advanced, err := repo.MarkFailed(ctx, ev.ID, "failed to enqueue job")
		require.NoError(t, err)
		assert.True(t, advanced)

		got, err := repo.GetByID(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, got.Status)
		require.NotNil(t, got.FailureReason)
		assert.Equal(t, "failed to enqueue job", *got.FailureReason)
		assert.NotNil(t, got.CompletedAt)

		// Failed is terminal too.
		advanced, err = repo.MarkRunning(ctx, ev.ID)
		require.NoError(t, err)
		assert.False(t, advanced)
	})
}

func TestTransitionsOnMissingRow(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewEvaluationRepo(db, nil)
		missing := uuid.NewString()

		_, err := repo.MarkRunning(ctx, missing)
		assert.ErrorIs(t, err, data.ErrEvaluationNotFound)

		_, err = repo.MarkCompleted(ctx, missing, nil)
		assert.ErrorIs(t, err, data.ErrEvaluationNotFound)

		_, err = repo.MarkFailed(ctx, missing, "whatever")
		assert.ErrorIs(t, err, data.ErrEvaluationNotFound)
	})
}

func TestStatsCountsPerKind(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := data.NewEvaluationRepo(db, nil)
		_, version := testutil.SeedOwnershipChain(t, db, "user-1")

		testutil.SeedEvaluation(t, db, version, model.KindGrade)
		running := testutil.SeedEvaluation(t, db, version, model.KindGrade)
		testutil.SeedEvaluation(t, db, version, model.KindSimulate)

		_, err := repo.MarkRunning(ctx, running.ID)
		require.NoError(t, err)

		stats, err := repo.Stats(ctx, model.KindGrade)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Pending)
		assert.Equal(t, 1, stats.Running)
		assert.Zero(t, stats.Completed)

		stats, err = repo.Stats(ctx, model.KindSimulate)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Pending)
	})
}

func TestGetByIDRejectsMalformedID(t *testing.T) {
	// The uuid precheck runs before any query, so no database is needed.
	repo := data.NewEvaluationRepo(nil, nil)
	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, data.ErrEvaluationNotFound)
}
